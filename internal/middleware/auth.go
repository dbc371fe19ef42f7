package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"

	"github.com/fidelize/gateway/internal/session"
)

var sessionStore *session.Store

// InitAuthMiddleware wires the session store used to resolve bearer tokens.
func InitAuthMiddleware(store *session.Store) {
	sessionStore = store
}

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		token := parts[1]

		if sessionStore != nil {
			blacklisted, err := sessionStore.IsBlacklisted(r.Context(), token)
			if err != nil {
				log.Printf("[Auth] blacklist check failed: %v", err)
				http.Error(w, "Authorization check failed", http.StatusInternalServerError)
				return
			}
			if blacklisted {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
		}

		sessionID, err := validateToken(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		sess, err := sessionStore.Get(r.Context(), sessionID)
		if err != nil {
			// Session record gone means logged out or expired, even if
			// the token itself still verifies.
			http.Error(w, "Session expired", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "session", sess)
		ctx = context.WithValue(ctx, "bearerToken", token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(viper.GetString("jwt.secret_key")), nil
	})

	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}

	sessionID, ok := claims["sid"].(string)
	if !ok || sessionID == "" {
		return "", fmt.Errorf("missing session id claim")
	}
	return sessionID, nil
}

// SessionFromContext pulls the session loaded by AuthMiddleware.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value("session").(*session.Session)
	return sess, ok
}

// TokenFromContext pulls the raw bearer token loaded by AuthMiddleware.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value("bearerToken").(string)
	return token, ok
}
