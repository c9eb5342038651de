package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/i18n"
	"github.com/goliatone/go-admingen/pkg/repository"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-Id"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	registryKey
)

// RequestID returns the id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID keeps a well-formed incoming id and mints one otherwise.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", RequestID(r.Context())),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error("request", fields...)
			return
		}
		s.logger.Info("request", fields...)
	})
}

func (s *Server) guard(next http.Handler) http.Handler {
	if s.opts.Guard == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.opts.Guard(r); err != nil {
			var httpErr adminerr.HTTPError
			if !errors.As(err, &httpErr) {
				err = statusError{code: http.StatusForbidden, err: err}
			}
			s.renderError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// localize binds a registry view translated for the request's locale.
func (s *Server) localize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := s.localeFor(r)
		reg := s.opts.Registry.Localized(i18n.NewLocalizer(s.opts.Translations, locale))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), registryKey, reg)))
	})
}

func (s *Server) localeFor(r *http.Request) string {
	if locale := strings.TrimSpace(r.URL.Query().Get("locale")); s.supports(locale) {
		return locale
	}
	for _, part := range strings.Split(r.Header.Get("Accept-Language"), ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(tag, "-")
		if s.supports(tag) {
			return tag
		}
		if s.supports(base) {
			return base
		}
	}
	return s.opts.DefaultLocale
}

func (s *Server) supports(locale string) bool {
	return locale != "" && slices.Contains(s.opts.Locales, locale)
}

func (s *Server) registryFor(r *http.Request) *repository.Registry {
	if reg, ok := r.Context().Value(registryKey).(*repository.Registry); ok && reg != nil {
		return reg
	}
	return s.opts.Registry
}

func (s *Server) localizer(r *http.Request) i18n.Localizer {
	return i18n.NewLocalizer(s.opts.Translations, s.localeFor(r))
}

type statusError struct {
	code int
	err  error
}

func (e statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.code)
	}
	return e.err.Error()
}

func (e statusError) Unwrap() error   { return e.err }
func (e statusError) StatusCode() int { return e.code }
