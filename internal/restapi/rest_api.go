// Package restapi serves the map configuration, the static dataset and the
// per-viewer session endpoints the map page drives.
package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"transitmap.onebusaway.org/internal/app"
	"transitmap.onebusaway.org/internal/logging"
	"transitmap.onebusaway.org/internal/utils"
)

type RestAPI struct {
	*app.Application
	limiter     *RateLimitMiddleware
	rateLimiter func(http.Handler) http.Handler
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	proxies, err := utils.ParseTrustedProxies(app.Config.TrustedProxies)
	if err != nil {
		logging.LogError(app.Logger, "ignoring trusted proxies", err,
			slog.String("component", "rate_limiter"))
		proxies = nil
	}
	limiter := newRateLimiter(app.Config.RateLimit, time.Second, proxies)
	return &RestAPI{
		Application: app,
		limiter:     limiter,
		rateLimiter: limiter.rateLimitHandler,
	}
}

// Close stops the background work of the API.
func (api *RestAPI) Close() {
	api.limiter.Stop()
}
