package i18n

import "strings"

// Localizer binds a Translator to one locale and exposes the (key, default)
// lookup used throughout the admin.
type Localizer struct {
	translator Translator
	locale     string
	onMissing  MissingHandler
}

type LocalizerOption func(*Localizer)

// WithMissingHandler overrides the default of returning the fallback.
func WithMissingHandler(fn MissingHandler) LocalizerOption {
	return func(l *Localizer) {
		if fn != nil {
			l.onMissing = fn
		}
	}
}

// NewLocalizer accepts a nil translator; every lookup then falls back.
func NewLocalizer(t Translator, locale string, opts ...LocalizerOption) Localizer {
	l := Localizer{translator: t, locale: strings.TrimSpace(locale), onMissing: missingDefault}
	if l.locale == "" {
		l.locale = "en"
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&l)
		}
	}
	return l
}

func (l Localizer) Locale() string { return l.locale }

// T translates key, falling back to fallback. Both are interpolated.
func (l Localizer) T(key, fallback string, vars ...Vars) string {
	merged := Vars{}
	for _, v := range vars {
		for k, val := range v {
			merged[k] = val
		}
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return Interpolate(fallback, merged)
	}

	onMissing := l.onMissing
	if onMissing == nil {
		onMissing = missingDefault
	}
	if l.translator == nil {
		return Interpolate(onMissing(l.locale, key, fallback, ErrMissingTranslation), merged)
	}

	msg, err := l.translator.Translate(l.locale, key, merged)
	if err == nil && strings.TrimSpace(msg) != "" {
		return msg
	}
	if err == nil {
		err = ErrMissingTranslation
	}
	return Interpolate(onMissing(l.locale, key, fallback, err), merged)
}

func missingDefault(_, _, fallback string, _ error) string {
	return fallback
}
