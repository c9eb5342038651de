package picker

import (
	"fmt"
	"net/http"
	"strings"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux and chi routers.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPaths returns the single and multiple endpoint paths under basePath.
func MountPaths(basePath string, fns ...OptionFn) (single, multiple string) {
	opts := NewOptions(fns...)
	return mountPath(basePath, opts.SingleRoutePath), mountPath(basePath, opts.MultipleRoutePath)
}

// RegisterRoutes registers both picker endpoints under basePath on mux.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) ([]string, error) {
	return RegisterRoutesWithOptions(mux, basePath, NewOptions(fns...))
}

func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) ([]string, error) {
	if mux == nil {
		return nil, fmt.Errorf("picker: missing mux")
	}
	opts = NewOptions(func(o *Options) { *o = opts })

	single := mountPath(basePath, opts.SingleRoutePath)
	multiple := mountPath(basePath, opts.MultipleRoutePath)
	if single == multiple {
		return nil, fmt.Errorf("picker: single and multiple routes collide at %s", single)
	}
	mux.Handle(single, HandlerWithOptions(false, opts))
	mux.Handle(multiple, HandlerWithOptions(true, opts))
	return []string{single, multiple}, nil
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return strings.TrimRight(basePath, "/") + routePath
}
