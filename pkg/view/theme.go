package view

import (
	"path"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ThemeConfig flattens a theme selection into renderer configuration. Variant
// tokens, templates, and asset files override the manifest's own; every token
// is also exposed as a CSS custom property.
func ThemeConfig(sel *theme.Selection) *theme.RendererConfig {
	if sel == nil || sel.Manifest == nil {
		return nil
	}
	manifest := sel.Manifest

	tokens := merge(manifest.Tokens, nil)
	partials := merge(manifest.Templates, nil)
	files := merge(manifest.Assets.Files, nil)
	prefix := manifest.Assets.Prefix
	if variant, ok := manifest.Variants[sel.Variant]; ok {
		tokens = merge(tokens, variant.Tokens)
		partials = merge(partials, variant.Templates)
		files = merge(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	return &theme.RendererConfig{
		Theme:    sel.Theme,
		Variant:  sel.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if prefix == "" {
				return file
			}
			return path.Join(prefix, file)
		},
	}
}

// CSSVarsStyle renders the theme's CSS variables as an inline style value,
// sorted by name.
func CSSVarsStyle(cfg *theme.RendererConfig) string {
	if cfg == nil || len(cfg.CSSVars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(cfg.CSSVars))
	for key := range cfg.CSSVars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(cfg.CSSVars[key])
		b.WriteByte(';')
	}
	return b.String()
}

func merge(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
