package ports

// TokenIssuer signs and validates caller bearer tokens (RS256).
type TokenIssuer interface {
	IssueAccessToken(subject, role string, expiresInSeconds int64) (string, error)
	// ValidateAccessToken returns the subject and role carried by the token.
	ValidateAccessToken(tokenString string) (subject, role string, err error)
}
