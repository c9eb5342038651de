package actions

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/repository"
)

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

// Handler returns the action endpoint configured by fns.
func Handler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

func HandlerWithOptions(opts Options) http.Handler {
	return handlerFor("", opts)
}

// handlerFor serves the actions of model. A blank model is read from the
// request instead.
func handlerFor(model string, opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		if err := r.ParseMultipartForm(opts.MaxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		req := Request{
			Model:  model,
			Action: r.PostForm.Get(opts.ActionParam),
			IDs:    selectedIDs(r, opts),
			Form:   r.PostForm,
		}
		if req.Model == "" {
			req.Model = r.PostForm.Get(opts.ModelParam)
		}

		outcome, err := Run(r.Context(), opts.registry(r), req)
		if err != nil {
			writeError(w, opts.Logger, req, err)
			return
		}

		res := outcome.Response
		logger := opts.Logger.With(
			zap.String("model", outcome.Repository.ID()),
			zap.String("action", outcome.Action.Key()),
			zap.Int("selected", outcome.Selected),
		)
		if res.Succeeded() {
			logger.Info("bulk action executed", zap.String("message", res.Message()))
		} else {
			logger.Warn("bulk action failed", zap.Error(res.Err(outcome.Action.Key())))
		}

		if strings.EqualFold(r.URL.Query().Get(opts.FormatParam), "json") || strings.EqualFold(r.PostForm.Get(opts.FormatParam), "json") {
			writeJSON(w, logger, Describe(res))
			return
		}
		respond(w, r, opts, outcome)
	})
}

// respond maps the response: redirect, then download, then fragment, then a
// flash message on the index page.
func respond(w http.ResponseWriter, r *http.Request, opts Options, outcome Outcome) {
	res := outcome.Response
	repo := outcome.Repository

	if target, ok := res.RedirectPath(); ok {
		flash(w, r, opts, repo, outcome)
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	if dl, ok := res.FileDownload(); ok {
		serveFile(w, r, opts.Logger, dl.Path, dl.Filename)
		return
	}
	if html, ok := res.CustomFragment(); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(html))
		return
	}
	flash(w, r, opts, repo, outcome)
	http.Redirect(w, r, repo.PathFor(repository.RouteIndex, nil), http.StatusSeeOther)
}

func flash(w http.ResponseWriter, r *http.Request, opts Options, repo *repository.Repository, outcome Outcome) {
	res := outcome.Response
	if res.Succeeded() {
		if msg := res.Message(); msg != "" {
			opts.Flash(w, r, Flash{Kind: FlashNotice, Message: msg})
		}
		return
	}
	msg := res.Message()
	if msg == "" {
		msg = repo.Localizer().T(repository.UIKey("action_failed"), "The action could not be completed.")
	}
	opts.Flash(w, r, Flash{Kind: FlashError, Message: msg})
}

func serveFile(w http.ResponseWriter, r *http.Request, logger *zap.Logger, path, filename string) {
	f, err := os.Open(path)
	if err != nil {
		logger.Error("action download unavailable", zap.String("path", path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		logger.Error("action download unavailable", zap.String("path", path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if filename == "" {
		filename = filepath.Base(path)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	http.ServeContent(w, r, filename, info.ModTime(), f)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, d Descriptor) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(d); err != nil {
		logger.Debug("action response write failed", zap.Error(err))
	}
}

// writeError maps err onto its status. Errors returned by an action are
// fatal and surface as 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, req Request, err error) {
	code := adminerr.StatusCode(err)
	fields := []zap.Field{
		zap.String("model", req.Model),
		zap.String("action", req.Action),
		zap.Int("status", code),
		zap.Error(err),
	}
	if code >= http.StatusInternalServerError {
		logger.Error("bulk action errored", fields...)
		http.Error(w, http.StatusText(code), code)
		return
	}
	logger.Debug("bulk action rejected", fields...)
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

func selectedIDs(r *http.Request, opts Options) []string {
	ids := append([]string(nil), r.PostForm[opts.IDsParam]...)
	if plain := strings.TrimSuffix(opts.IDsParam, "[]"); plain != opts.IDsParam {
		ids = append(ids, r.PostForm[plain]...)
	}
	if id := r.PostForm.Get(opts.IDParam); id != "" {
		ids = append(ids, id)
	}
	return ids
}
