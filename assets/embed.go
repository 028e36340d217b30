// Package assets embeds the browser page and the SQL migrations.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed index.html sql/*.sql
var FS embed.FS

// IndexHTML returns the single-page host shell.
func IndexHTML() ([]byte, error) {
	return FS.ReadFile("index.html")
}

// Migrations returns the sql directory as its own filesystem root.
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "sql")
}
