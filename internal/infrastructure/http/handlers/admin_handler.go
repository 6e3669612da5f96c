package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
)

// AdminHandler handles /admin/*. Requires the admin role.
type AdminHandler struct {
	issuer        ports.TokenIssuer
	maxExpirySecs int64
	validate      *validator.Validate
	log           zerolog.Logger
}

// NewAdminHandler creates the admin handler. Tokens live at most maxExpirySecs.
func NewAdminHandler(issuer ports.TokenIssuer, maxExpirySecs int64, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		issuer:        issuer,
		maxExpirySecs: maxExpirySecs,
		validate:      newValidator(),
		log:           log,
	}
}

// IssueToken handles POST /admin/tokens. Body: { "subject", "role", "expires_in" }. Returns { "access_token", "expires_in" }.
func (h *AdminHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Subject   string `json:"subject" validate:"required,max=300"`
		Role      string `json:"role" validate:"required,max=50"`
		ExpiresIn int64  `json:"expires_in" validate:"gte=0"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", validationErr(err).Error())
		return
	}
	expires := body.ExpiresIn
	if expires == 0 || expires > h.maxExpirySecs {
		expires = h.maxExpirySecs
	}
	token, err := h.issuer.IssueAccessToken(strings.TrimSpace(body.Subject), body.Role, expires)
	if err != nil {
		h.log.Error().Err(err).Msg("issue token failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	h.log.Info().Str("subject", body.Subject).Str("role", body.Role).Int64("expires_in", expires).Msg("issued access token")
	writeJSON(w, http.StatusCreated, map[string]interface{}{"access_token": token, "expires_in": expires})
}
