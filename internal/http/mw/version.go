package mw

import (
	"net/http"

	"github.com/synterhq/synter-api/internal/version"
)

// Version adds the X-API-Version header to every response.
func Version() func(http.Handler) http.Handler {
	v := version.Get().Version
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-API-Version", v)
			next.ServeHTTP(w, r)
		})
	}
}
