// Package gameup provides embedded assets for production builds.
package gameup

import (
	"embed"
	"io/fs"
)

// TemplateFS holds the HTML templates under web/templates.
//
//go:embed web/templates/*.tmpl
var TemplateFS embed.FS

// Templates returns the template directory as the root of the filesystem.
func Templates() fs.FS {
	sub, err := fs.Sub(TemplateFS, "web/templates")
	if err != nil {
		panic(err) // unreachable: the directory is embedded at build time
	}
	return sub
}
