package server

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/i18n"
	"github.com/goliatone/go-admingen/pkg/repository"
	"github.com/goliatone/go-admingen/pkg/view"
)

// GuardFunc rejects requests before any admin handler runs.
type GuardFunc func(r *http.Request) error

// Options configures a Server.
type Options struct {
	Registry *repository.Registry

	// Translations and Locales drive the per-request localizer. The locale is
	// taken from the "locale" query parameter, then Accept-Language.
	Translations  i18n.Translator
	Locales       []string
	DefaultLocale string

	PerPage     int
	PickerLimit int

	ViewOptions []view.Option
	Stylesheets []string
	Guard       GuardFunc
	Logger      *zap.Logger
}

type Option func(*Options)

func WithRegistry(reg *repository.Registry) Option {
	return func(o *Options) {
		if reg != nil {
			o.Registry = reg
		}
	}
}

// WithTranslations enables translated pages for locales. The first locale is
// the default unless WithDefaultLocale says otherwise.
func WithTranslations(t i18n.Translator, locales ...string) Option {
	return func(o *Options) {
		o.Translations = t
		for _, locale := range locales {
			if locale = strings.TrimSpace(locale); locale != "" {
				o.Locales = append(o.Locales, locale)
			}
		}
	}
}

func WithDefaultLocale(locale string) Option {
	return func(o *Options) {
		if locale = strings.TrimSpace(locale); locale != "" {
			o.DefaultLocale = locale
		}
	}
}

func WithPerPage(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.PerPage = n
		}
	}
}

// WithPickerLimit caps the page size picker requests may ask for. Requests
// without a limit get every candidate.
func WithPickerLimit(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.PickerLimit = n
		}
	}
}

// WithViewOptions configures the field renderer. The server supplies its
// own template engine.
func WithViewOptions(opts ...view.Option) Option {
	return func(o *Options) {
		o.ViewOptions = append(o.ViewOptions, opts...)
	}
}

// WithStylesheet links href from every page.
func WithStylesheet(href string) Option {
	return func(o *Options) {
		if href = strings.TrimSpace(href); href != "" {
			o.Stylesheets = append(o.Stylesheets, href)
		}
	}
}

func WithGuard(guard GuardFunc) Option {
	return func(o *Options) {
		o.Guard = guard
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func (o *Options) applyDefaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.DefaultLocale == "" {
		if len(o.Locales) > 0 {
			o.DefaultLocale = o.Locales[0]
		} else {
			o.DefaultLocale = "en"
		}
	}
	if o.PickerLimit <= 0 {
		o.PickerLimit = 200
	}
}
