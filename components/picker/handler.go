package picker

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/render/template"
	"github.com/goliatone/go-admingen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-admingen/pkg/repository"
)

//go:embed templates
var templatesFS embed.FS

// Templates returns the fragment templates ("picker/single.tpl" and
// "picker/multiple.tpl").
func Templates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

var (
	defaultRendererOnce sync.Once
	defaultRenderer     template.Renderer
	defaultRendererErr  error
)

func fragmentRenderer(opts Options) (template.Renderer, error) {
	if opts.Renderer != nil {
		return opts.Renderer, nil
	}
	defaultRendererOnce.Do(func() {
		defaultRenderer, defaultRendererErr = gotemplate.New(
			gotemplate.WithName("admingen-picker"),
			gotemplate.WithFS(Templates()),
		)
	})
	return defaultRenderer, defaultRendererErr
}

// HTTPError lets guard errors choose the response status.
type HTTPError = adminerr.HTTPError

// StatusError pairs an error with an HTTP status code.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err == nil {
		return http.StatusText(e.Code)
	}
	return e.Err.Error()
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int { return e.Code }

// Handler returns the single-select handler configured by fns.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(false, fns...)
}

// NewHandler returns the handler of the single or the multiple endpoint.
func NewHandler(multiple bool, fns ...OptionFn) http.Handler {
	return HandlerWithOptions(multiple, NewOptions(fns...))
}

func HandlerWithOptions(multiple bool, opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		params := r.URL.Query()
		req := Request{
			Model:    params.Get(opts.ModelParam),
			Field:    params.Get(opts.FieldParam),
			RecordID: strings.TrimSpace(params.Get(opts.RecordParam)),
			Query:    params.Get(opts.SearchParam),
			Limit:    clampLimit(parseInt(params.Get(opts.LimitParam)), opts),
			Multiple: multiple,
		}

		result, err := Resolve(r.Context(), opts.registry(r), req)
		if err != nil {
			writeError(w, opts.Logger, req, err)
			return
		}

		if strings.EqualFold(params.Get(opts.FormatParam), "json") {
			writeJSON(w, r, opts.Logger, result.Candidates)
			return
		}
		writeFragment(w, r, opts, result)
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, logger *zap.Logger, candidates []Candidate) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(struct {
		Data []Candidate `json:"data"`
	}{Data: candidates}); err != nil {
		logger.Debug("picker response write failed", zap.Error(err))
	}
}

func writeFragment(w http.ResponseWriter, r *http.Request, opts Options, result Result) {
	renderer, err := fragmentRenderer(opts)
	if err != nil {
		writeError(w, opts.Logger, Request{}, fmt.Errorf("picker: template engine: %w", err))
		return
	}

	candidates := make([]any, 0, len(result.Candidates))
	for _, c := range result.Candidates {
		candidates = append(candidates, map[string]any{
			"id":       c.ID,
			"label":    c.Label,
			"selected": c.Selected,
		})
	}
	owner := result.Field.Repository()
	data := map[string]any{
		"dom_id":     owner.Model().ParamKey() + "_" + result.Field.Name(),
		"candidates": candidates,
		"empty":      owner.Localizer().T(repository.UIKey("no_records"), "No records found"),
	}

	name := "picker/single"
	if result.Multiple {
		name = "picker/multiple"
	}
	html, err := renderer.RenderTemplate(name, data)
	if err != nil {
		writeError(w, opts.Logger, Request{Model: owner.ID(), Field: result.Field.Name()}, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	_, _ = w.Write([]byte(html))
}

// writeError maps err onto its status. Server errors are logged; client
// errors only at debug.
func writeError(w http.ResponseWriter, logger *zap.Logger, req Request, err error) {
	code := adminerr.StatusCode(err)
	fields := []zap.Field{
		zap.String("model", req.Model),
		zap.String("field", req.Field),
		zap.Int("status", code),
		zap.Error(err),
	}
	if code >= http.StatusInternalServerError {
		logger.Error("picker request failed", fields...)
		http.Error(w, http.StatusText(code), code)
		return
	}
	logger.Debug("picker request rejected", fields...)
	http.Error(w, err.Error(), code)
}

func writeGuardError(w http.ResponseWriter, err error) {
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		if status := httpErr.StatusCode(); status > 0 {
			code = status
		}
	}
	http.Error(w, http.StatusText(code), code)
}

func parseInt(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
