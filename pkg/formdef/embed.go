package formdef

import (
	"embed"
	"io/fs"
)

//go:embed definitions/*.yaml
var embedded embed.FS

// EmbeddedFS returns the bundled definition files.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embedded, "definitions")
	if err != nil {
		panic(err)
	}
	return sub
}

// Embedded parses the bundled login and signup definitions.
func Embedded() (*Catalog, error) {
	return LoadFS(EmbeddedFS())
}
