package action

import (
	"github.com/goliatone/go-admingen/pkg/adminerr"
)

// Status of an action response.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Download describes a file the action produced.
type Download struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

// Response tells the endpoint how to finish the request. At most one of the
// redirect, download, and fragment outcomes is honoured, in that order;
// without any of them the message is flashed on the repository index.
type Response struct {
	status      Status
	message     string
	redirect    string
	download    *Download
	fragment    string
	hasFragment bool
}

func Success(message string) Response {
	return Response{status: StatusSuccess, message: message}
}

func Error(message string) Response {
	return Response{status: StatusError, message: message}
}

func (r Response) RedirectTo(path string) Response {
	r.redirect = path
	return r
}

func (r Response) Download(path, filename string) Response {
	r.download = &Download{Path: path, Filename: filename}
	return r
}

// Fragment replaces the page with html.
func (r Response) Fragment(html string) Response {
	r.fragment = html
	r.hasFragment = true
	return r
}

func (r Response) Status() Status {
	if r.status == "" {
		return StatusSuccess
	}
	return r.status
}

func (r Response) Succeeded() bool { return r.Status() == StatusSuccess }
func (r Response) Message() string { return r.message }

func (r Response) RedirectPath() (string, bool) {
	return r.redirect, r.redirect != ""
}

func (r Response) FileDownload() (Download, bool) {
	if r.download == nil {
		return Download{}, false
	}
	return *r.download, true
}

func (r Response) CustomFragment() (string, bool) {
	return r.fragment, r.hasFragment
}

// Err returns an adminerr.ActionError for error responses, nil otherwise.
func (r Response) Err(key string) error {
	if r.Succeeded() {
		return nil
	}
	return adminerr.ActionError{Action: key, Msg: r.message}
}
