package repository

import (
	"net/url"
	"path"
	"sort"
	"strings"
)

// Route names understood by Routes.PathFor.
const (
	RouteIndex   = "index"
	RouteShow    = "show"
	RouteNew     = "new"
	RouteEdit    = "edit"
	RouteActions = "actions"
)

// Routes builds admin paths under a base path.
type Routes struct {
	base string
}

// NewRoutes normalises basePath to a leading slash and no trailing slash.
func NewRoutes(basePath string) Routes {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" || basePath == "/" {
		return Routes{}
	}
	return Routes{base: "/" + strings.Trim(basePath, "/")}
}

func (r Routes) BasePath() string { return r.base }

// Root is the admin landing path.
func (r Routes) Root() string {
	if r.base == "" {
		return "/"
	}
	return r.base
}

// PathFor returns the path of route for controller. The "id" param fills the
// member segment; every other param becomes a query argument.
func (r Routes) PathFor(controller, route string, params map[string]string) string {
	id := params["id"]
	segments := []string{r.base, controller}
	switch route {
	case RouteShow:
		segments = append(segments, id)
	case RouteEdit:
		segments = append(segments, id, "edit")
	case RouteNew:
		segments = append(segments, "new")
	case RouteActions:
		segments = append(segments, "actions")
	}
	p := path.Join(append([]string{"/"}, segments...)...)

	query := url.Values{}
	keys := make([]string, 0, len(params))
	for key := range params {
		if key != "id" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		query.Set(key, params[key])
	}
	if encoded := query.Encode(); encoded != "" {
		return p + "?" + encoded
	}
	return p
}

// PickerPath returns the picker endpoint for single or multi selection.
func (r Routes) PickerPath(multiple bool) string {
	if multiple {
		return path.Join("/", r.base, "has_many", "associated_records")
	}
	return path.Join("/", r.base, "belongs_to", "associated_records")
}
