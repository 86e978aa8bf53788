package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/session"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Claims is the bearer token payload. The token ID doubles as the redis
// session key, so expiring the session revokes the token before its exp.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the Authorization bearer token and requires a
// live session behind it before placing the user ID in the request context.
func AuthMiddleware(secret []byte, sessions session.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || raw == "" {
				respondError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid || claims.UserID <= 0 {
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			s, err := sessions.Get(r.Context(), claims.ID)
			if err != nil || s.UserID != claims.UserID {
				respondError(w, http.StatusUnauthorized, "unauthorized", "session expired")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getUserIDFromContext(ctx context.Context) int64 {
	if userID, ok := ctx.Value(userIDKey).(int64); ok {
		return userID
	}
	return 0
}
