package middleware

import (
	"encoding/json"
	"net/http"
)

func writeErr(w http.ResponseWriter, code int, errCode, message string) {
	if errCode == "" {
		errCode = "internal_error"
		switch code {
		case http.StatusUnauthorized:
			errCode = "unauthorized"
		case http.StatusForbidden:
			errCode = "forbidden"
		case http.StatusTooManyRequests:
			errCode = "rate_limited"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": errCode})
}
