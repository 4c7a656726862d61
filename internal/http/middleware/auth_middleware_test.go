package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sandeepkv93/campus-notify-core/internal/security"
)

func TestAuthMiddleware(t *testing.T) {
	tokens := security.NewAccessTokenManager("test-secret-with-enough-length-000", "campus-accounts", "campus-notify")
	good, err := tokens.Sign(42, "student", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	other := security.NewAccessTokenManager("another-secret-with-enough-length", "campus-accounts", "campus-notify")
	forged, err := other.Sign(42, "admin", time.Hour)
	if err != nil {
		t.Fatalf("sign forged: %v", err)
	}

	var seenUser uint
	var seenRole string
	h := AuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			t.Fatal("expected user id in context")
		}
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("expected claims in context")
		}
		seenUser, seenRole = id, claims.Role
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + good, want: http.StatusUnauthorized},
		{name: "forged", header: "Bearer " + forged, want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not.a.jwt", want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + good, want: http.StatusNoContent},
		{name: "valid lowercase scheme", header: "bearer " + good, want: http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}
	if seenUser != 42 || seenRole != "student" {
		t.Fatalf("unexpected identity in context: user=%d role=%q", seenUser, seenRole)
	}
}

func TestUserIDFromContextEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := UserIDFromContext(req.Context()); ok {
		t.Fatal("expected no user id on bare context")
	}
}
