package webui

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"index.html":     {Data: []byte("<html>console</html>")},
		"assets/app.js":  {Data: []byte("console.log('app')")},
		"assets/app.css": {Data: []byte("body{}")},
	}
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAssetHandler_ServesFiles(t *testing.T) {
	sub := testAssets()
	h := assetHandler{root: sub, fileServer: http.FileServerFS(sub)}

	rec := serve(t, h, "/assets/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log('app')", rec.Body.String())
}

func TestAssetHandler_FallsBackToIndex(t *testing.T) {
	sub := testAssets()
	h := assetHandler{root: sub, fileServer: http.FileServerFS(sub)}

	// Frontend routes are unknown paths server-side; they render index.html.
	for _, path := range []string{"/", "/login", "/companies/1/documents", "/index.html"} {
		rec := serve(t, h, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "<html>console</html>", rec.Body.String(), path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
	}
}

func TestAssetHandler_NoIndex404(t *testing.T) {
	sub := fstest.MapFS{}
	h := assetHandler{root: sub, fileServer: http.FileServerFS(sub)}

	rec := serve(t, h, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAvailable_PlaceholderOnly(t *testing.T) {
	// The committed dist/ holds only the placeholder; no UI is served.
	assert.False(t, Available())
}
