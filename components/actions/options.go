package actions

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/repository"
)

// GuardFunc rejects a request by returning an error. Errors implementing
// HTTPError choose the response status; any other error is a 403.
type GuardFunc func(r *http.Request) error

// RegistryFunc returns the registry serving r.
type RegistryFunc func(r *http.Request) *repository.Registry

// Flash is a one-off message shown on the next page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	FlashNotice = "notice"
	FlashError  = "error"
)

// FlashFunc stores f for the page the client is redirected to.
type FlashFunc func(w http.ResponseWriter, r *http.Request, f Flash)

type Options struct {
	ModelParam  string
	ActionParam string
	IDParam     string
	IDsParam    string
	FormatParam string

	// MaxMemory bounds multipart form parsing.
	MaxMemory int64

	Guard       GuardFunc
	Registry    *repository.Registry
	RegistryFor RegistryFunc
	Flash       FlashFunc
	Logger      *zap.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		ModelParam:  "model",
		ActionParam: "action_name",
		IDParam:     "id",
		IDsParam:    "ids[]",
		FormatParam: "format",
		MaxMemory:   32 << 20,
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
	if opts.ModelParam == "" {
		opts.ModelParam = defaults.ModelParam
	}
	if opts.ActionParam == "" {
		opts.ActionParam = defaults.ActionParam
	}
	if opts.IDParam == "" {
		opts.IDParam = defaults.IDParam
	}
	if opts.IDsParam == "" {
		opts.IDsParam = defaults.IDsParam
	}
	if opts.FormatParam == "" {
		opts.FormatParam = defaults.FormatParam
	}
	if opts.MaxMemory <= 0 {
		opts.MaxMemory = defaults.MaxMemory
	}
	if opts.Flash == nil {
		opts.Flash = func(http.ResponseWriter, *http.Request, Flash) {}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
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

func WithFlash(fn FlashFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Flash = fn
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
