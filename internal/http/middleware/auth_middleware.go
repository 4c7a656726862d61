package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sandeepkv93/campus-notify-core/internal/http/response"
	"github.com/sandeepkv93/campus-notify-core/internal/observability"
	"github.com/sandeepkv93/campus-notify-core/internal/security"
)

type contextKey string

const (
	ClaimsContextKey contextKey = "claims"
	UserIDContextKey contextKey = "user_id"
)

// AccessTokenParser is satisfied by security.AccessTokenManager.
type AccessTokenParser interface {
	Parse(raw string) (*security.Claims, error)
}

// AuthMiddleware accepts bearer tokens only; this API sets no cookies.
func AuthMiddleware(tokens AccessTokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				observability.RecordAccessTokenValidation(r.Context(), "missing", "header")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
				return
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				observability.RecordAccessTokenValidation(r.Context(), "invalid", "header")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", nil)
				return
			}
			userID, _ := claims.UserID()
			observability.RecordAccessTokenValidation(r.Context(), "valid", "header")
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			ctx = context.WithValue(ctx, UserIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	return c, ok
}

func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(UserIDContextKey).(uint)
	return id, ok && id != 0
}
