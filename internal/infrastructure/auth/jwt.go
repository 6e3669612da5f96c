package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
)

// TokenIssuer implements ports.TokenIssuer with RS256. Built with only a public key it
// validates but cannot issue.
type TokenIssuer struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	audience   string
}

type accessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func NewTokenIssuer(privateKey *rsa.PrivateKey, issuer, audience string) *TokenIssuer {
	return &TokenIssuer{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
		audience:   audience,
	}
}

func NewTokenVerifier(publicKey *rsa.PublicKey, issuer, audience string) *TokenIssuer {
	return &TokenIssuer{publicKey: publicKey, issuer: issuer, audience: audience}
}

// IssueAccessToken signs a token for subject (the caller's login) carrying role.
func (t *TokenIssuer) IssueAccessToken(subject, role string, expiresInSeconds int64) (string, error) {
	if t.privateKey == nil {
		return "", errors.New("token issuer has no signing key")
	}
	if subject == "" || role == "" {
		return "", errors.New("subject and role are required")
	}
	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiresInSeconds) * time.Second)),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(t.privateKey)
}

func (t *TokenIssuer) ValidateAccessToken(tokenString string) (subject, role string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.publicKey, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithAudience(t.audience), jwt.WithExpirationRequired())
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token claims")
	}
	if claims.Subject == "" || claims.Role == "" {
		return "", "", errors.New("token lacks subject or role")
	}
	return claims.Subject, claims.Role, nil
}

var _ ports.TokenIssuer = (*TokenIssuer)(nil)
