package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIssuer struct {
	subject string
	role    string
	expires int64
}

func (s *stubIssuer) IssueAccessToken(subject, role string, expiresInSeconds int64) (string, error) {
	s.subject, s.role, s.expires = subject, role, expiresInSeconds
	return "signed." + subject, nil
}

func (s *stubIssuer) ValidateAccessToken(string) (string, string, error) { return "", "", nil }

func TestAdminHandler_IssueToken(t *testing.T) {
	issuer := &stubIssuer{}
	h := NewAdminHandler(issuer, 3600, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.IssueToken(rec, httptest.NewRequest(http.MethodPost, "/admin/tokens", strings.NewReader(`{"subject":" dev@example.com ","role":"user","expires_in":99999}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "signed.dev@example.com", out["access_token"])
	assert.Equal(t, float64(3600), out["expires_in"])
	assert.Equal(t, "dev@example.com", issuer.subject)
	assert.Equal(t, int64(3600), issuer.expires)
}

func TestAdminHandler_IssueTokenRejectsMissingRole(t *testing.T) {
	rec := httptest.NewRecorder()
	NewAdminHandler(&stubIssuer{}, 3600, zerolog.Nop()).IssueToken(rec, httptest.NewRequest(http.MethodPost, "/admin/tokens", strings.NewReader(`{"subject":"dev@example.com"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "role failed required")
}
