// Package adminerr defines the error kinds shared by repositories, picker
// endpoints, and bulk actions, together with the HTTP status each maps to.
package adminerr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// NotFoundError reports that a record, repository, field, association, or
// action could not be resolved.
type NotFoundError struct {
	Resource string
	Name     string
	Err      error
}

func (e NotFoundError) Error() string {
	switch {
	case e.Resource != "" && e.Name != "":
		return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
	case e.Resource != "":
		return fmt.Sprintf("%s not found", e.Resource)
	default:
		return "not found"
	}
}

func (e NotFoundError) Unwrap() error { return e.Err }

// StatusCode implements the HTTPError contract used by components.
func (NotFoundError) StatusCode() int { return http.StatusNotFound }

// ConfigurationError reports an invalid admin definition: an unregistered
// model, a duplicate registration, or an association whose target cannot be
// resolved.
type ConfigurationError struct {
	Subject string
	Msg     string
	Err     error
}

func (e ConfigurationError) Error() string {
	switch {
	case e.Subject != "" && e.Msg != "":
		return fmt.Sprintf("invalid configuration for %s: %s", e.Subject, e.Msg)
	case e.Msg != "":
		return "invalid configuration: " + e.Msg
	case e.Subject != "":
		return fmt.Sprintf("invalid configuration for %s", e.Subject)
	default:
		return "invalid configuration"
	}
}

func (e ConfigurationError) Unwrap() error { return e.Err }

func (ConfigurationError) StatusCode() int { return http.StatusUnprocessableEntity }

// ValidationError carries field-level messages for a rejected save.
// Messages that cannot be attributed to a field are kept in Form.
type ValidationError struct {
	Fields map[string][]string
	Form   []string
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 && len(e.Form) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names)+len(e.Form))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %s", name, strings.Join(e.Fields[name], ", ")))
	}
	parts = append(parts, e.Form...)
	return "validation failed: " + strings.Join(parts, "; ")
}

func (ValidationError) StatusCode() int { return http.StatusUnprocessableEntity }

// Empty reports whether no messages were collected.
func (e ValidationError) Empty() bool {
	return len(e.Fields) == 0 && len(e.Form) == 0
}

// Messages returns the normalised messages for a field.
func (e ValidationError) Messages(field string) []string {
	if e.Fields == nil {
		return nil
	}
	return e.Fields[field]
}

// ActionError is returned when a bulk action reports an error response. It is
// surfaced to the user and never treated as fatal.
type ActionError struct {
	Action string
	Msg    string
}

func (e ActionError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("action %s failed", e.Action)
	}
	return fmt.Sprintf("action %s failed: %s", e.Action, e.Msg)
}

func (ActionError) StatusCode() int { return http.StatusUnprocessableEntity }

// ErrStaleFetch marks a picker response that arrived after a newer request
// was issued. Callers discard it silently.
var ErrStaleFetch = errors.New("stale fetch discarded")

// HTTPError is implemented by errors that know their HTTP status.
type HTTPError interface {
	error
	StatusCode() int
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsConfiguration(err error) bool {
	var target ConfigurationError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsActionFailure(err error) bool {
	var target ActionError
	return errors.As(err, &target)
}

func IsStaleFetch(err error) bool {
	return errors.Is(err, ErrStaleFetch)
}

// AsValidation extracts the validation payload from err.
func AsValidation(err error) (ValidationError, bool) {
	var target ValidationError
	if errors.As(err, &target) {
		return target, true
	}
	return ValidationError{}, false
}

// StatusCode maps err onto the HTTP boundary. Unknown errors are 500.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		if code := httpErr.StatusCode(); code > 0 {
			return code
		}
	}
	return http.StatusInternalServerError
}
