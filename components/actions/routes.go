package actions

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-admingen/pkg/repository"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux and chi routers.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// RegisterRoutes mounts one action endpoint per registered model, at the
// model's actions path ("/admin/books/actions").
func RegisterRoutes(mux Mux, fns ...OptionFn) ([]string, error) {
	return RegisterRoutesWithOptions(mux, NewOptions(fns...))
}

func RegisterRoutesWithOptions(mux Mux, opts Options) ([]string, error) {
	if mux == nil {
		return nil, fmt.Errorf("actions: missing mux")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("actions: missing registry")
	}
	opts = NewOptions(func(o *Options) { *o = opts })

	var patterns []string
	for _, id := range opts.Registry.Models() {
		repo, err := opts.Registry.For(id)
		if err != nil {
			return nil, fmt.Errorf("actions: %w", err)
		}
		if len(repo.Actions()) == 0 {
			continue
		}
		pattern := repo.PathFor(repository.RouteActions, nil)
		mux.Handle(pattern, handlerFor(id, opts))
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}
