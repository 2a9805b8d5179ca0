// Package client embeds the browser-side loader assets for the comment
// widget: the script a host page includes and its base stylesheet.
package client

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed src/*.js src/*.css
var assets embed.FS

// Assets returns the embedded filesystem with the loader files at its
// root.
func Assets() fs.FS {
	fsys, err := fs.Sub(assets, "src")
	if err != nil {
		panic(err)
	}
	return fsys
}

// Handler serves the embedded assets over HTTP.
func Handler() http.Handler {
	return http.FileServer(http.FS(Assets()))
}

// MustGetFile returns an embedded file's contents, panicking when the
// name is unknown. Use for files that ship with the binary.
func MustGetFile(name string) []byte {
	data, err := assets.ReadFile("src/" + name)
	if err != nil {
		panic(err)
	}
	return data
}

// GetFile returns an embedded file's contents.
func GetFile(name string) ([]byte, error) {
	return assets.ReadFile("src/" + name)
}

// FileNames lists the embedded asset names.
func FileNames() []string {
	entries, err := assets.ReadDir("src")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names
}
