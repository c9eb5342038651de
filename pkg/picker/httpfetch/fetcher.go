// Package httpfetch loads picker candidates from the picker endpoint.
package httpfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/picker"
)

// Fetcher requests the JSON form of a picker endpoint URL, such as the
// data-url rendered on a picker input, adding the query text.
type Fetcher struct {
	endpoint *url.URL
	client   *http.Client
	header   http.Header
	param    string
}

var _ picker.Fetcher = (*Fetcher)(nil)

type Option func(*Fetcher)

func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithHeader sets a header on every request.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		f.header.Set(key, value)
	}
}

// WithSearchParam renames the query parameter.
func WithSearchParam(name string) Option {
	return func(f *Fetcher) {
		if name = strings.TrimSpace(name); name != "" {
			f.param = name
		}
	}
}

func New(endpoint string, opts ...Option) (*Fetcher, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("httpfetch: endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, adminerr.ConfigurationError{Subject: "httpfetch", Msg: "endpoint must be an absolute URL: " + endpoint}
	}
	f := &Fetcher{endpoint: u, client: http.DefaultClient, header: http.Header{}, param: "query"}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

func (f *Fetcher) Fetch(ctx context.Context, query string) ([]picker.Option, error) {
	u := *f.endpoint
	params := u.Query()
	params.Set(f.param, query)
	params.Set("format", "json")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: request: %w", err)
	}
	for key, values := range f.header {
		req.Header[key] = append([]string(nil), values...)
	}
	req.Header.Set("Accept", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, statusError(res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Data []picker.Option `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("httpfetch: decode: %w", err)
	}
	return payload.Data, nil
}

// statusError maps the endpoint's status back onto the error kinds.
func statusError(code int, msg string) error {
	switch code {
	case http.StatusNotFound:
		return adminerr.NotFoundError{Resource: "picker", Err: fmt.Errorf("%s", msg)}
	case http.StatusUnprocessableEntity:
		return adminerr.ConfigurationError{Subject: "picker", Msg: msg}
	default:
		return fmt.Errorf("httpfetch: unexpected status %d: %s", code, msg)
	}
}
