package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/campus-notify-core/internal/health"
	"github.com/sandeepkv93/campus-notify-core/internal/http/handler"
	"github.com/sandeepkv93/campus-notify-core/internal/http/middleware"
	"github.com/sandeepkv93/campus-notify-core/internal/http/response"
)

const maxBodyBytes = 64 << 10

type Dependencies struct {
	CredentialHandler   *handler.CredentialHandler
	NotificationHandler *handler.NotificationHandler
	AccessTokens        middleware.AccessTokenParser
	CORSOrigins         []string

	// APILimiter buckets authenticated inbox traffic per user; CredentialLimiter
	// buckets the public code endpoints per client address. Nil falls back to a
	// process-local fixed window.
	APILimiter                middleware.Limiter
	CredentialLimiter         middleware.Limiter
	APIRateLimitPerMin        int
	CredentialRateLimitPerMin int
	CredentialFailureMode     middleware.FailureMode

	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	credentialRL := middleware.NewRateLimiter(dep.CredentialLimiter, positive(dep.CredentialRateLimitPerMin, 20), time.Minute, "credentials")
	if dep.CredentialFailureMode != "" {
		credentialRL = credentialRL.WithFailureMode(dep.CredentialFailureMode)
	}
	credentialLimiter := credentialRL.Middleware()
	apiLimiter := middleware.NewRateLimiter(dep.APILimiter, positive(dep.APIRateLimitPerMin, 120), time.Minute, "notifications").
		WithKeyFunc(middleware.UserOrIPKey).Middleware()

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/credentials", func(r chi.Router) {
			r.Use(credentialLimiter)
			r.Post("/password-reset/request", dep.CredentialHandler.RequestPasswordReset)
			r.Post("/password-reset/verify", dep.CredentialHandler.VerifyPasswordReset)
			r.Post("/password-reset/complete", dep.CredentialHandler.CompletePasswordReset)
			r.Post("/signup/request", dep.CredentialHandler.RequestSignupCode)
			r.Post("/signup/verify", dep.CredentialHandler.VerifySignupCode)
			r.Post("/signup/complete", dep.CredentialHandler.CompleteSignup)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(dep.AccessTokens))
			r.Use(apiLimiter)
			r.Get("/", dep.NotificationHandler.List)
			r.Get("/unread-count", dep.NotificationHandler.UnreadCount)
			r.Put("/read-all", dep.NotificationHandler.MarkAllRead)
			r.Put("/{id}/read", dep.NotificationHandler.MarkRead)
			r.Delete("/{id}", dep.NotificationHandler.Delete)
			r.Delete("/", dep.NotificationHandler.DeleteAll)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}

func positive(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
