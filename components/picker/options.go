package picker

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/render/template"
	"github.com/goliatone/go-admingen/pkg/repository"
)

// GuardFunc rejects a request by returning an error. Errors implementing
// HTTPError choose the response status; any other error is a 403.
type GuardFunc func(r *http.Request) error

// RegistryFunc returns the registry serving r, typically a localized view of
// a shared registry.
type RegistryFunc func(r *http.Request) *repository.Registry

type Options struct {
	SingleRoutePath   string
	MultipleRoutePath string

	ModelParam  string
	FieldParam  string
	RecordParam string
	SearchParam string
	LimitParam  string
	FormatParam string

	// DefaultLimit applies when a request names no limit. Zero returns
	// every matching candidate.
	DefaultLimit int
	// MaxLimit caps the limits requests ask for.
	MaxLimit     int
	Guard        GuardFunc

	Registry    *repository.Registry
	RegistryFor RegistryFunc
	Renderer    template.Renderer
	Logger      *zap.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		SingleRoutePath:   "/belongs_to/associated_records",
		MultipleRoutePath: "/has_many/associated_records",
		ModelParam:        "model",
		FieldParam:        "field",
		RecordParam:       "record_id",
		SearchParam:       "query",
		LimitParam:        "limit",
		FormatParam:       "format",
		MaxLimit:          200,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	defaults := DefaultOptions()
	if opts.SingleRoutePath == "" {
		opts.SingleRoutePath = defaults.SingleRoutePath
	}
	if opts.MultipleRoutePath == "" {
		opts.MultipleRoutePath = defaults.MultipleRoutePath
	}
	if opts.ModelParam == "" {
		opts.ModelParam = defaults.ModelParam
	}
	if opts.FieldParam == "" {
		opts.FieldParam = defaults.FieldParam
	}
	if opts.RecordParam == "" {
		opts.RecordParam = defaults.RecordParam
	}
	if opts.SearchParam == "" {
		opts.SearchParam = defaults.SearchParam
	}
	if opts.LimitParam == "" {
		opts.LimitParam = defaults.LimitParam
	}
	if opts.FormatParam == "" {
		opts.FormatParam = defaults.FormatParam
	}
	if opts.DefaultLimit < 0 {
		opts.DefaultLimit = 0
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = defaults.MaxLimit
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

func WithRoutePaths(single, multiple string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SingleRoutePath = single
		o.MultipleRoutePath = multiple
	}
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SearchParam = name
	}
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultLimit = limit
	}
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxLimit = limit
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithRegistry(reg *repository.Registry) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Registry = reg
	}
}

// WithRegistryFor resolves the registry per request. It wins over WithRegistry.
func WithRegistryFor(fn RegistryFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RegistryFor = fn
	}
}

// WithRenderer renders fragments through r, which must be able to load the
// templates under Templates().
func WithRenderer(r template.Renderer) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Renderer = r
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		if o == nil || logger == nil {
			return
		}
		o.Logger = logger
	}
}

func (o Options) registry(r *http.Request) *repository.Registry {
	if o.RegistryFor != nil {
		if reg := o.RegistryFor(r); reg != nil {
			return reg
		}
	}
	return o.Registry
}

// clampLimit keeps a requested page size within MaxLimit. Missing and invalid
// limits use DefaultLimit; zero means no limit.
func clampLimit(limit int, opts Options) int {
	if limit <= 0 {
		limit = opts.DefaultLimit
	}
	if limit <= 0 {
		return 0
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
