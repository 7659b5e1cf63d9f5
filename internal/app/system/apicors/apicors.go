// Package apicors provides CORS middleware for the JSON API.
//
// The API authenticates with a Bearer API key rather than cookies, so
// origins can be "*" and credentials are never allowed.
package apicors

import (
	"net/http"
)

// Middleware returns CORS middleware suitable for API key authenticated
// endpoints. It allows any origin, permits the methods and headers the
// file API uses, and answers preflight OPTIONS requests directly.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Owner-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
