package restapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"transitmap.onebusaway.org/internal/logging"
)

// limited applies the per-client rate limit to an API handler.
func (api *RestAPI) limited(h http.HandlerFunc) http.Handler {
	return api.rateLimiter(h)
}

// SetRoutes registers the API endpoints on router.
func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.Handler(http.MethodGet, "/api/current-time.json", api.limited(api.currentTimeHandler))
	router.Handler(http.MethodGet, "/api/config.json", api.limited(api.configHandler))
	router.Handler(http.MethodGet, "/api/stops.json", api.limited(api.stopsHandler))
	router.Handler(http.MethodGet, "/api/routes.json", api.limited(api.routesHandler))
	router.Handler(http.MethodGet, "/api/shapes/:id", api.limited(api.shapesHandler))

	router.Handler(http.MethodPost, "/api/sessions", api.limited(api.createSessionHandler))
	router.Handler(http.MethodDelete, "/api/sessions/:session", api.limited(api.deleteSessionHandler))
	router.Handler(http.MethodGet, "/api/sessions/:session/scene", api.limited(api.sceneHandler))
	router.Handler(http.MethodPost, "/api/sessions/:session/stops/:stop/popup", api.limited(api.popupHandler))
	router.Handler(http.MethodPost, "/api/sessions/:session/select", api.limited(api.selectRouteHandler))
	router.Handler(http.MethodPost, "/api/sessions/:session/close", api.limited(api.closeLineHandler))
	router.Handler(http.MethodPost, "/api/sessions/:session/reset", api.limited(api.resetViewHandler))
	router.Handler(http.MethodPost, "/api/sessions/:session/location", api.limited(api.locationHandler))

	router.HandlerFunc(http.MethodGet, "/healthz", api.healthHandler)
	router.Handler(http.MethodGet, "/metrics", api.Metrics.Handler())
}

// Handler registers the API on router and wraps it in the middleware chain:
// request logging, security headers, CORS and compression, outermost first.
func (api *RestAPI) Handler(router *httprouter.Router) http.Handler {
	api.SetRoutes(router)
	router.NotFound = http.HandlerFunc(api.sendNotFound)
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.sendErrorEnvelope(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		api.serverErrorResponse(w, r, fmt.Errorf("panic: %v", v))
	}

	var h http.Handler = router
	if compress, err := NewCompressionMiddleware(DefaultCompressionConfig()); err != nil {
		logging.LogError(api.Logger, "serving uncompressed responses", err,
			slog.String("component", "http_server"))
	} else {
		h = compress(h)
	}
	h = NewCORSMiddleware(api.Config.AllowedOrigins)(h)
	h = api.WithSecurityHeaders(h)
	h = NewRequestLoggingMiddleware(api.Logger, api.Metrics)(h)
	return h
}
