package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/components/actions"
	"github.com/goliatone/go-admingen/components/picker"
	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/render/template"
	"github.com/goliatone/go-admingen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-admingen/pkg/repository"
	"github.com/goliatone/go-admingen/pkg/view"
)

//go:embed templates
var templatesFS embed.FS

// Templates returns the page templates, rooted so that names look like
// "admin/index.tpl".
func Templates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Server renders the admin.
type Server struct {
	opts     Options
	engine   template.Renderer
	renderer *view.Renderer
	router   chi.Router
	logger   *zap.Logger
}

// New builds the router for every model registered in the registry.
func New(opts ...Option) (*Server, error) {
	o := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	o.applyDefaults()
	if o.Registry == nil {
		return nil, adminerr.ConfigurationError{Subject: "server", Msg: "missing registry"}
	}

	engine, err := gotemplate.New(
		gotemplate.WithName("admingen-server"),
		gotemplate.WithFS(Templates()),
		gotemplate.WithFS(view.Templates()),
	)
	if err != nil {
		return nil, fmt.Errorf("server: template engine: %w", err)
	}
	viewOpts := append([]view.Option{view.WithEngine(engine), view.WithLogger(o.Logger)}, o.ViewOptions...)
	renderer, err := view.New(viewOpts...)
	if err != nil {
		return nil, fmt.Errorf("server: view renderer: %w", err)
	}

	s := &Server{
		opts:     o,
		engine:   engine,
		renderer: renderer,
		logger:   o.Logger,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler returns the admin router.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() error {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.guard)
	r.Use(s.localize)

	reg := s.opts.Registry
	root := reg.Routes().Root()
	r.Get(root, s.dashboard)

	pickers := picker.New(
		picker.WithRegistry(reg),
		picker.WithRegistryFor(s.registryFor),
		picker.WithMaxLimit(s.opts.PickerLimit),
		picker.WithLogger(s.logger.Named("picker")),
	)
	if _, err := pickers.RegisterRoutes(r, reg.Routes().BasePath()); err != nil {
		return fmt.Errorf("server: picker routes: %w", err)
	}

	bulk := actions.New(
		actions.WithRegistry(reg),
		actions.WithRegistryFor(s.registryFor),
		actions.WithFlash(setFlash),
		actions.WithLogger(s.logger.Named("actions")),
	)
	if _, err := bulk.RegisterRoutes(r); err != nil {
		return fmt.Errorf("server: action routes: %w", err)
	}

	for _, id := range reg.Models() {
		repo, err := reg.For(id)
		if err != nil {
			return err
		}
		index := repo.PathFor(repository.RouteIndex, nil)
		member := index + "/{id}"
		r.Get(index, s.index(id))
		r.Post(index, s.create(id))
		r.Get(repo.PathFor(repository.RouteNew, nil), s.newForm(id))
		r.Get(member, s.show(id))
		r.Get(member+"/edit", s.editForm(id))
		r.Post(member, s.update(id))
		r.Post(member+"/delete", s.destroy(id))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, adminerr.NotFoundError{Resource: "page", Name: r.URL.Path})
	})
	s.router = r
	return nil
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	return Serve(ctx, s.router, addr, readTimeout, writeTimeout, s.logger)
}

// Serve runs h on addr until ctx is cancelled.
func Serve(ctx context.Context, h http.Handler, addr string, readTimeout, writeTimeout time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}
