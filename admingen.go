// Package admingen assembles an admin panel from model metadata: a registry
// of repositories over a SQL store, served with the picker and bulk action
// endpoints.
//
//	admin, err := admingen.New(ctx,
//	  admingen.WithDatabase("sqlite", "file:app.db"),
//	  admingen.WithCatalog(catalog),
//	  admingen.WithRegistrar(register),
//	)
//	if err != nil { ... }
//	defer admin.Close()
//	http.ListenAndServe(":8080", admin.Handler())
package admingen

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/internal/server"
	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/i18n"
	"github.com/goliatone/go-admingen/pkg/model"
	"github.com/goliatone/go-admingen/pkg/query/sqlstore"
	"github.com/goliatone/go-admingen/pkg/repository"
	"github.com/goliatone/go-admingen/pkg/view"
)

// DefaultBasePath is where the admin is mounted unless WithBasePath says
// otherwise.
const DefaultBasePath = "/admin"

// Registrar adds repositories to reg, reading and writing through store.
type Registrar func(reg *repository.Registry, store *sqlstore.Store) error

// Guard rejects requests before any admin handler runs.
type Guard = server.GuardFunc

type options struct {
	driver   string
	dsn      string
	store    *sqlstore.Store
	catalog  model.Resolver
	register []Registrar

	basePath     string
	translations i18n.Translator
	locales      []string
	perPage      int
	pickerLimit  int
	theme        *theme.RendererConfig
	guard        Guard
	logger       *zap.Logger
}

type Option func(*options)

// WithDatabase opens driver and dsn. The admin closes the connection.
func WithDatabase(driver, dsn string) Option {
	return func(o *options) {
		o.driver = strings.TrimSpace(driver)
		o.dsn = strings.TrimSpace(dsn)
	}
}

// WithStore uses an open store. The caller keeps ownership of it.
func WithStore(store *sqlstore.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCatalog resolves models for a store opened through WithDatabase.
func WithCatalog(catalog model.Resolver) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

// WithRegistrar adds repositories once the store is ready. Registrars run in
// the order given.
func WithRegistrar(fn Registrar) Option {
	return func(o *options) {
		if fn != nil {
			o.register = append(o.register, fn)
		}
	}
}

func WithBasePath(path string) Option {
	return func(o *options) {
		o.basePath = path
	}
}

// WithTranslations localizes pages for locales; the first is the default.
func WithTranslations(t i18n.Translator, locales ...string) Option {
	return func(o *options) {
		o.translations = t
		o.locales = append(o.locales, locales...)
	}
}

func WithPerPage(n int) Option {
	return func(o *options) {
		o.perPage = n
	}
}

// WithPickerLimit caps the limit a picker request may ask for.
func WithPickerLimit(n int) Option {
	return func(o *options) {
		o.pickerLimit = n
	}
}

func WithTheme(cfg *theme.RendererConfig) Option {
	return func(o *options) {
		o.theme = cfg
	}
}

func WithGuard(guard Guard) Option {
	return func(o *options) {
		o.guard = guard
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Admin is an assembled admin panel.
type Admin struct {
	registry  *repository.Registry
	store     *sqlstore.Store
	ownsStore bool
	handler   http.Handler
	logger    *zap.Logger
}

// New opens the store, runs the registrars, and builds the HTTP handler.
func New(ctx context.Context, opts ...Option) (*Admin, error) {
	o := options{basePath: DefaultBasePath}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if len(o.register) == 0 {
		return nil, adminerr.ConfigurationError{Subject: "admingen", Msg: "no registrar given"}
	}

	a := &Admin{store: o.store, logger: o.logger}
	if a.store == nil {
		if o.driver == "" || o.catalog == nil {
			return nil, adminerr.ConfigurationError{Subject: "admingen", Msg: "a store or a database and catalog are required"}
		}
		store, err := sqlstore.Open(o.driver, o.dsn, o.catalog, sqlstore.WithLogger(o.logger.Named("sql")))
		if err != nil {
			return nil, err
		}
		if err := store.DB().PingContext(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("admingen: ping %s: %w", o.driver, err)
		}
		a.store, a.ownsStore = store, true
	}

	if err := a.build(o); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Admin) build(o options) error {
	routes := repository.NewRoutes(o.basePath)
	regOpts := []repository.RegistryOption{
		repository.WithRegistryRoutes(routes),
		repository.WithRegistryLogger(o.logger.Named("registry")),
	}
	a.registry = repository.NewRegistry(regOpts...)
	for _, register := range o.register {
		if err := register(a.registry, a.store); err != nil {
			return err
		}
	}

	assets := strings.TrimSuffix(routes.Root(), "/") + "/assets/"
	srvOpts := []server.Option{
		server.WithRegistry(a.registry),
		server.WithPerPage(o.perPage),
		server.WithPickerLimit(o.pickerLimit),
		server.WithGuard(o.guard),
		server.WithLogger(o.logger),
		server.WithStylesheet(assets + "admin.css"),
	}
	if o.translations != nil {
		srvOpts = append(srvOpts, server.WithTranslations(o.translations, o.locales...))
	}
	if o.theme != nil {
		srvOpts = append(srvOpts, server.WithViewOptions(view.WithTheme(o.theme)))
	}
	srv, err := server.New(srvOpts...)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Handle(assets+"*", http.StripPrefix(assets, http.FileServerFS(AssetsFS())))
	r.Handle("/*", srv.Handler())
	a.handler = r
	return nil
}

func (a *Admin) Registry() *repository.Registry { return a.registry }
func (a *Admin) Store() *sqlstore.Store          { return a.store }

// Handler serves the admin pages, the picker and action endpoints, and the
// stylesheet.
func (a *Admin) Handler() http.Handler { return a.handler }

// ListenAndServe serves Handler on addr until ctx is cancelled, then drains
// in-flight requests.
func (a *Admin) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	return server.Serve(ctx, a.handler, addr, readTimeout, writeTimeout, a.logger)
}

// Close releases the store when the admin opened it.
func (a *Admin) Close() error {
	if a == nil || !a.ownsStore || a.store == nil {
		return nil
	}
	return a.store.Close()
}
