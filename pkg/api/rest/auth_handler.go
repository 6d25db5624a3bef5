package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type LoginRequest struct {
	Key string `json:"key"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// handleLogin exchanges a configured API key for a short-lived JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	valid := false
	for _, k := range s.config.Auth.Keys {
		if k == req.Key {
			valid = true
			break
		}
	}
	if !valid {
		respondError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	if s.config.Auth.JWTSecret == "" {
		respondError(w, http.StatusInternalServerError, "JWT secret not configured")
		return
	}

	expires := time.Now().Add(24 * time.Hour).Unix()
	claims := jwt.MapClaims{
		"sub": req.Key,
		"exp": expires,
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Auth.JWTSecret))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to sign token")
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Token:     tokenString,
		ExpiresAt: expires,
	})
}
