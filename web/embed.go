package web

import (
	"embed"
	"io/fs"
)

//go:embed all:static
var staticFS embed.FS

// StaticFS returns the embedded shell page filesystem.
func StaticFS() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
