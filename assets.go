package admingen

import (
	"embed"
	"io/fs"
)

//go:embed assets/*.css
var embeddedAssets embed.FS

// AssetsFS exposes the admin stylesheet. Admin.Handler serves it under
// "<root>/assets/"; mount it yourself when wiring the server directly:
//
//	mux.Handle("/admin/assets/",
//	  http.StripPrefix("/admin/assets/",
//	    http.FileServerFS(admingen.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}
