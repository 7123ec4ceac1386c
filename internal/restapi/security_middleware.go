package restapi

import (
	"net/http"
)

var securityHeaderValues = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none';"},
}

// The map frontend runs on another origin and sends the admin secret
// with every write.
var corsHeaderValues = [][2]string{
	{"Access-Control-Allow-Origin", "*"},
	{"Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS"},
	{"Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Secret"},
	{"Access-Control-Max-Age", "86400"},
}

// WithSecurityHeaders sets the fixed security headers, adds CORS headers for
// cross-origin callers and answers preflight requests itself.
func (api *RestAPI) WithSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaderValues {
			h.Set(kv[0], kv[1])
		}
		if r.Header.Get("Origin") != "" {
			for _, kv := range corsHeaderValues {
				h.Set(kv[0], kv[1])
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
