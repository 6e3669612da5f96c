package middleware

import (
	"net/http"

	"github.com/amirhosseinghanipour/provisioner/internal/domain"
)

// RequireAdmin rejects callers without the admin role. Use after AuthValidator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds, ok := CredentialsFromContext(r.Context())
		if !ok {
			writeErr(w, http.StatusUnauthorized, "", "missing credentials")
			return
		}
		if !creds.IsAdmin() {
			writeErr(w, http.StatusForbidden, "", "requires the "+domain.RoleAdmin+" role")
			return
		}
		next.ServeHTTP(w, r)
	})
}
