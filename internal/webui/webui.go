// Package webui serves the map page, its static assets and a debug dump of
// the loaded dataset.
package webui

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"transitmap.onebusaway.org/internal/app"
)

//go:embed static debug_index.html
var templateFS embed.FS

type WebUI struct {
	*app.Application
}

func New(application *app.Application) *WebUI {
	return &WebUI{Application: application}
}

// SetWebUIRoutes registers the page, the assets and the debug view.
func (webUI *WebUI) SetWebUIRoutes(router *httprouter.Router) {
	static, err := fs.Sub(templateFS, "static")
	if err != nil {
		panic(err)
	}

	router.HandlerFunc(http.MethodGet, "/", webUI.indexHandler)
	router.ServeFiles("/static/*filepath", http.FS(static))
	router.HandlerFunc(http.MethodGet, "/debug/", webUI.debugIndexHandler)
}

func (webUI *WebUI) indexHandler(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, templateFS, "static/index.html")
}
