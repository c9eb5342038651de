package picker

import "net/http"

// Component bundles the picker options with helpers for mounting them.
type Component struct {
	opts Options
}

func New(fns ...OptionFn) *Component {
	return &Component{opts: NewOptions(fns...)}
}

func (c *Component) Options() Options {
	if c == nil {
		return NewOptions()
	}
	return c.opts
}

// Handler returns the handler of the single or the multiple endpoint.
func (c *Component) Handler(multiple bool) http.Handler {
	return HandlerWithOptions(multiple, c.Options())
}

func (c *Component) RegisterRoutes(mux Mux, basePath string) ([]string, error) {
	return RegisterRoutesWithOptions(mux, basePath, c.Options())
}
