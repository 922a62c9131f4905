package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyHeader is the HTTP header carrying the admin API key
const APIKeyHeader = "X-API-Key"

// AdminAPIKey guards admin endpoints with a static API key. The configured
// value is a bcrypt hash, so a leaked config file does not leak the key
// itself. An empty hash disables the admin surface.
func AdminAPIKey(keyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				http.Error(w, "Admin API is disabled", http.StatusNotFound)
				return
			}

			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				http.Error(w, "API key is required", http.StatusUnauthorized)
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
