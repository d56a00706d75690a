package monitoring

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed web
var webAssets embed.FS

// WithAssetDir serves the monitoring page from a directory instead of the
// page built into the binary. An empty dir selects the built-in page.
func (m *Monitor) WithAssetDir(dir string) *Monitor {
	m.assetDir = dir
	return m
}

func (m *Monitor) assets() http.FileSystem {
	if m.assetDir != "" {
		return http.Dir(m.assetDir)
	}

	page, err := fs.Sub(webAssets, "web")
	if err != nil {
		panic(err)
	}

	return http.FS(page)
}
