// Package migrations embeds the SQL schema files applied at startup.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed *.sql
var files embed.FS

// FS returns the embedded migrations filesystem.
func FS() fs.FS {
	return files
}
