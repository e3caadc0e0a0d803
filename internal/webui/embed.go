// Package webui embeds and serves the console's dashboard frontend.
package webui

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed all:dist
var distFS embed.FS

// Available reports whether frontend assets were built into the binary.
// When the frontend build did not run, dist contains only a placeholder and
// the console serves its API without a UI.
func Available() bool {
	entries, err := fs.ReadDir(distFS, "dist")
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Name() != ".gitkeep" {
			return true
		}
	}
	return false
}

// Handler serves the embedded dashboard. Unknown paths fall back to
// index.html so the frontend router owns navigation.
func Handler() http.Handler {
	sub, err := fs.Sub(distFS, "dist")
	if err != nil {
		return http.NotFoundHandler()
	}
	return assetHandler{root: sub, fileServer: http.FileServerFS(sub)}
}

type assetHandler struct {
	root       fs.FS
	fileServer http.Handler
}

func (h assetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	// Serve real assets through the file server for Content-Type and
	// range handling. index.html is excluded: FileServer redirects it to
	// "./", which loops when the handler is mounted under a prefix.
	if path != "" && path != "index.html" {
		if f, err := h.root.Open(path); err == nil {
			_ = f.Close()
			h.fileServer.ServeHTTP(w, r)
			return
		}
	}

	index, err := fs.ReadFile(h.root, "index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(index)
}
