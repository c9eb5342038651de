package actions

import "net/http"

// Component bundles the action options with helpers for mounting them.
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

func (c *Component) Handler() http.Handler {
	return HandlerWithOptions(c.Options())
}

func (c *Component) RegisterRoutes(mux Mux) ([]string, error) {
	return RegisterRoutesWithOptions(mux, c.Options())
}
