// Package middleware provides HTTP middleware for the control API.
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Auth validates API keys and JWTs on every request.
type Auth struct {
	keys      map[string]struct{}
	jwtSecret []byte
}

// NewAuth creates the auth middleware from the configured keys and an
// optional JWT signing secret.
func NewAuth(keys []string, jwtSecret string) *Auth {
	set := make(map[string]struct{})
	for _, k := range keys {
		set[k] = struct{}{}
	}
	var secret []byte
	if jwtSecret != "" {
		secret = []byte(jwtSecret)
	}
	return &Auth{keys: set, jwtSecret: secret}
}

// Handler returns the middleware handler.
func (a *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Health, metrics and login stay public.
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" || r.URL.Path == "/api/v1/login" {
			next.ServeHTTP(w, r)
			return
		}

		// Authorization: Bearer <JWT> or <key>
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			if a.jwtSecret != nil {
				token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
					if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
					}
					return a.jwtSecret, nil
				})
				if err == nil && token.Valid {
					next.ServeHTTP(w, r)
					return
				}
			}

			if _, ok := a.keys[tokenString]; ok {
				next.ServeHTTP(w, r)
				return
			}
		}

		// X-API-Key header
		if key := r.Header.Get("X-API-Key"); key != "" {
			if _, ok := a.keys[key]; ok {
				next.ServeHTTP(w, r)
				return
			}
		}

		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
