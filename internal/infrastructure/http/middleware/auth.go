package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
)

// AuthValidator validates the bearer token and builds the request credentials
// (see CredentialsFromContext). Restricted callers get their grants from permissions.
type AuthValidator struct {
	issuer      ports.TokenIssuer
	permissions ports.PermissionRepository
	log         zerolog.Logger
}

func NewAuthValidator(issuer ports.TokenIssuer, permissions ports.PermissionRepository, log zerolog.Logger) *AuthValidator {
	return &AuthValidator{issuer: issuer, permissions: permissions, log: log}
}

func (m *AuthValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			writeErr(w, http.StatusUnauthorized, "", "missing or invalid authorization")
			return
		}
		tokenString := strings.TrimPrefix(auth, "Bearer ")
		subject, role, err := m.issuer.ValidateAccessToken(tokenString)
		if err != nil {
			writeErr(w, http.StatusUnauthorized, "invalid_token", "invalid token")
			return
		}
		creds := domain.Credentials{Subject: subject, Role: role}
		if !creds.IsAdmin() {
			perms, err := m.permissions.GetPermissions(r.Context(), subject)
			if err != nil {
				m.log.Error().Err(err).Str("subject", subject).Msg("load caller permissions failed")
				writeErr(w, http.StatusInternalServerError, "", "internal error")
				return
			}
			creds.Permissions = perms
		}
		next.ServeHTTP(w, r.WithContext(WithCredentials(r.Context(), creds)))
	})
}
