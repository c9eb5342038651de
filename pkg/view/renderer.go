package view

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/adminerr"
	"github.com/goliatone/go-admingen/pkg/field"
	"github.com/goliatone/go-admingen/pkg/record"
	"github.com/goliatone/go-admingen/pkg/render/template"
	"github.com/goliatone/go-admingen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-admingen/pkg/repository"
)

//go:embed templates
var templatesFS embed.FS

// Templates returns the default field templates, rooted so that names look
// like "fields/input.tpl".
func Templates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Options configures a Renderer.
type Options struct {
	Engine   template.Renderer
	Registry *Registry
	Theme    *theme.RendererConfig
	Logger   *zap.Logger
}

type Option func(*Options)

// WithEngine renders through engine. The engine must be able to load the
// templates under Templates().
func WithEngine(engine template.Renderer) Option {
	return func(o *Options) {
		if o != nil && engine != nil {
			o.Engine = engine
		}
	}
}

// WithRegistry uses reg as is, without adding the default strategies.
func WithRegistry(reg *Registry) Option {
	return func(o *Options) {
		if o != nil && reg != nil {
			o.Registry = reg
		}
	}
}

// WithTheme applies theme tokens and template overrides.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(o *Options) {
		if o != nil {
			o.Theme = cfg
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if o != nil && logger != nil {
			o.Logger = logger
		}
	}
}

// Renderer dispatches fields to their components.
type Renderer struct {
	engine   template.Renderer
	registry *Registry
	theme    *theme.RendererConfig
	logger   *zap.Logger
}

// New builds a renderer. Without options it renders the embedded templates
// and registers a strategy for every built-in field kind.
func New(opts ...Option) (*Renderer, error) {
	o := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Engine == nil {
		engine, err := gotemplate.New(gotemplate.WithName("admingen-view"), gotemplate.WithFS(Templates()))
		if err != nil {
			return nil, fmt.Errorf("view: template engine: %w", err)
		}
		o.Engine = engine
	}

	r := &Renderer{
		engine:   o.Engine,
		registry: o.Registry,
		theme:    o.Theme,
		logger:   o.Logger,
	}
	if r.registry == nil {
		r.registry = NewRegistry()
		if err := r.registerDefaults(r.registry); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Renderer) Registry() *Registry          { return r.registry }
func (r *Renderer) Engine() template.Renderer    { return r.engine }
func (r *Renderer) Theme() *theme.RendererConfig { return r.theme }

// Field renders b for rec on a page of action a.
func (r *Renderer) Field(ctx context.Context, b repository.BoundField, rec record.Record, a field.Action, errs []string) (string, error) {
	component, err := r.registry.ComponentFor(b.Field(), a)
	if err != nil {
		return "", err
	}
	out, err := component.Render(ctx, Input{Field: b, Record: rec, Errors: errs})
	if err != nil {
		r.logger.Warn("field render failed",
			zap.String("model", b.Repository().ID()),
			zap.String("field", b.Name()),
			zap.String("action", string(a)),
			zap.Error(err),
		)
		return "", fmt.Errorf("view: render %s.%s: %w", b.Repository().ID(), b.Name(), err)
	}
	return out, nil
}

// Rendered is a field rendered for a page.
type Rendered struct {
	Name  string
	Kind  field.Kind
	Label string
	Hint  string
	Group field.Group
	HTML  string
}

// Fields renders every field of repo shown on action a. Validation messages
// are handed to the matching field.
func (r *Renderer) Fields(ctx context.Context, repo *repository.Repository, rec record.Record, a field.Action, verr adminerr.ValidationError) ([]Rendered, error) {
	bound := repo.BoundFieldsFor(a)
	out := make([]Rendered, 0, len(bound))
	for _, b := range bound {
		errs := verr.Messages(b.Name())
		if key := b.ParamKey(); key != b.Name() {
			errs = append(errs, verr.Messages(key)...)
		}
		html, err := r.Field(ctx, b, rec, a, errs)
		if err != nil {
			return nil, err
		}
		out = append(out, Rendered{
			Name:  b.Name(),
			Kind:  b.Kind(),
			Label: b.Label(),
			Hint:  b.Hint(),
			Group: b.Field().Group(a),
			HTML:  html,
		})
	}
	return out, nil
}

// render executes the template of kind in mode, honouring theme overrides.
func (r *Renderer) render(kind field.Kind, mode Mode, name string, data map[string]any) (string, error) {
	if r.theme != nil {
		if override := r.theme.Partials[partialKey(kind, mode)]; override != "" {
			name = override
		}
	}
	return r.engine.RenderTemplate(name, data)
}

func partialKey(kind field.Kind, mode Mode) string {
	return "admingen." + string(kind) + "." + string(mode)
}
