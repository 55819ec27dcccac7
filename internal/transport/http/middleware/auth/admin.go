package auth

import (
	"net/http"
	"strings"

	"github.com/tokengate/tokengate/internal/storage"
	"github.com/tokengate/tokengate/internal/types"
)

// AdminAuth middleware protects admin routes using the stored password hash.
// Requires Bearer token authentication with the admin password.
func AdminAuth(store storage.Storage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract Bearer token
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				types.WriteError(w, types.ErrAuthentication("authorization required"))
				return
			}
			password := strings.TrimPrefix(auth, "Bearer ")

			// Get stored hash and verify
			hash, err := store.GetAdminPasswordHash()
			if err != nil {
				types.WriteInternalError(w, "server error")
				return
			}
			if hash == "" {
				types.WriteError(w, types.ErrAuthentication("admin not configured"))
				return
			}

			valid, err := storage.VerifySecret(password, hash)
			if err != nil || !valid {
				types.WriteError(w, types.ErrAuthentication("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
