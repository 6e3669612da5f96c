package middleware

import (
	"context"

	"github.com/amirhosseinghanipour/provisioner/internal/domain"
)

type contextKey string

const credentialsContextKey contextKey = "credentials"

// WithCredentials injects the caller credentials into the context.
func WithCredentials(ctx context.Context, creds domain.Credentials) context.Context {
	return context.WithValue(ctx, credentialsContextKey, creds)
}

// CredentialsFromContext returns the caller credentials and whether any were set.
func CredentialsFromContext(ctx context.Context) (domain.Credentials, bool) {
	creds, ok := ctx.Value(credentialsContextKey).(domain.Credentials)
	return creds, ok
}
