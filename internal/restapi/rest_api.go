package restapi

import (
	"net/http"
	"time"

	"ubmap.app/internal/app"
)

// MaxUploadBytes bounds multipart and raw request bodies.
const MaxUploadBytes = 32 << 20

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, app.Config.TrustedProxies),
	}
}

// Handler returns the routed API wrapped in the middleware chain.
func (api *RestAPI) Handler() http.Handler {
	var handler http.Handler = api.Routes()
	handler = api.rateLimiter.Handler(handler)
	handler = CompressionMiddleware(handler)
	handler = api.WithSecurityHeaders(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	return handler
}

// Stop releases the rate limiter's cleanup ticker.
func (api *RestAPI) Stop() {
	api.rateLimiter.Stop()
}
