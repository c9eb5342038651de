package repository

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-openapi/inflect"
	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/i18n"
)

// Factory builds a fresh repository. It is called on every lookup, so the
// returned value is never shared between callers.
type Factory func() *Repository

// Registry maps model identities to repository factories. Every entry is
// registered explicitly; names coming from requests are only ever looked up.
type Registry struct {
	entries *entries

	routes    Routes
	localizer i18n.Localizer
	logger    *zap.Logger
}

type entries struct {
	mu        sync.RWMutex
	factories map[string]Factory
	aliases   map[string]string
}

// RegistryOption configures defaults handed to every repository built by the
// registry.
type RegistryOption func(*Registry)

func WithRegistryRoutes(routes Routes) RegistryOption {
	return func(r *Registry) {
		r.routes = routes
	}
}

func WithRegistryLocalizer(l i18n.Localizer) RegistryOption {
	return func(r *Registry) {
		r.localizer = l
	}
}

func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: &entries{
			factories: make(map[string]Factory),
			aliases:   make(map[string]string),
		},
		routes:    NewRoutes(""),
		localizer: i18n.NewLocalizer(nil, ""),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register adds the factory for modelID. Registering a model twice is a
// configuration error rather than a silent override.
func (r *Registry) Register(modelID string, factory Factory) error {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return adminerr.ConfigurationError{Subject: "registry", Msg: "model id is required"}
	}
	if factory == nil {
		return adminerr.ConfigurationError{Subject: modelID, Msg: "repository factory is required"}
	}

	e := r.entries
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.factories[modelID]; exists {
		return adminerr.ConfigurationError{Subject: modelID, Msg: "repository already registered"}
	}
	e.factories[modelID] = factory

	singular := inflect.Underscore(modelID)
	for _, alias := range []string{singular, inflect.Pluralize(singular)} {
		if _, taken := e.aliases[alias]; !taken {
			e.aliases[alias] = modelID
		}
	}
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(modelID string, factory Factory) {
	if err := r.Register(modelID, factory); err != nil {
		panic(err)
	}
}

// For builds the repository registered for modelID.
func (r *Registry) For(modelID string) (*Repository, error) {
	r.entries.mu.RLock()
	factory, ok := r.entries.factories[modelID]
	r.entries.mu.RUnlock()
	if !ok {
		return nil, adminerr.NotFoundError{Resource: "repository", Name: modelID}
	}

	repo := factory()
	if repo == nil {
		return nil, adminerr.ConfigurationError{Subject: modelID, Msg: "factory returned no repository"}
	}
	if repo.model.ID != modelID {
		return nil, adminerr.ConfigurationError{
			Subject: modelID,
			Msg:     fmt.Sprintf("factory built a repository for %q", repo.model.ID),
		}
	}
	if err := repo.validate(); err != nil {
		return nil, err
	}
	return r.bind(repo), nil
}

// Lookup resolves an untrusted model name: the registered id itself, or its
// underscored singular or plural form ("Author", "author", "authors").
func (r *Registry) Lookup(raw string) (*Repository, error) {
	name := strings.TrimSpace(raw)
	r.entries.mu.RLock()
	_, exact := r.entries.factories[name]
	alias, aliased := r.entries.aliases[name]
	r.entries.mu.RUnlock()

	switch {
	case name == "":
		return nil, adminerr.NotFoundError{Resource: "repository"}
	case exact:
		return r.For(name)
	case aliased:
		return r.For(alias)
	default:
		return nil, adminerr.NotFoundError{Resource: "repository", Name: name}
	}
}

// Models returns the registered model ids, sorted.
func (r *Registry) Models() []string {
	r.entries.mu.RLock()
	defer r.entries.mu.RUnlock()

	ids := make([]string, 0, len(r.entries.factories))
	for id := range r.entries.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Localized returns a registry view whose repositories use l. Registrations
// are shared with the receiver.
func (r *Registry) Localized(l i18n.Localizer) *Registry {
	return &Registry{
		entries:   r.entries,
		routes:    r.routes,
		localizer: l,
		logger:    r.logger,
	}
}

func (r *Registry) Routes() Routes { return r.routes }

func (r *Registry) bind(repo *Repository) *Repository {
	repo.registry = r
	if !repo.routesSet {
		repo.routes = r.routes
	}
	if !repo.localizerSet {
		repo.localizer = r.localizer
	}
	if !repo.loggerSet {
		repo.logger = r.logger
	}
	return repo
}
