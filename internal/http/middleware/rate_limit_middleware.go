package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/campus-notify-core/internal/http/response"
	"github.com/sandeepkv93/campus-notify-core/internal/observability"
)

// Limiter decides whether another request under key fits in the current window.
// retryAfter is only meaningful when allowed is false.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

type FailureMode string

const (
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

type KeyFunc func(r *http.Request) string

type RateLimiter struct {
	limiter Limiter
	limit   int
	window  time.Duration
	scope   string
	mode    FailureMode
	keyFunc KeyFunc
}

func NewRateLimiter(limiter Limiter, limit int, window time.Duration, scope string) *RateLimiter {
	if limiter == nil {
		limiter = NewLocalFixedWindowLimiter()
	}
	if scope == "" {
		scope = "api"
	}
	return &RateLimiter{
		limiter: limiter,
		limit:   limit,
		window:  window,
		scope:   scope,
		mode:    FailOpen,
		keyFunc: clientIPKey,
	}
}

func (rl *RateLimiter) WithFailureMode(mode FailureMode) *RateLimiter {
	rl.mode = mode
	return rl
}

func (rl *RateLimiter) WithKeyFunc(fn KeyFunc) *RateLimiter {
	if fn != nil {
		rl.keyFunc = fn
	}
	return rl
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.scope + ":" + rl.keyFunc(r)
			allowed, retryAfter, err := rl.limiter.Allow(r.Context(), key, rl.limit, rl.window)
			if err != nil {
				slog.WarnContext(r.Context(), "rate limiter backend error", "scope", rl.scope, "mode", string(rl.mode), "error", err)
				if rl.mode == FailClosed {
					observability.RecordRateLimitDecision(r.Context(), rl.scope, "backend_error_closed")
					response.Error(w, r, http.StatusServiceUnavailable, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable", nil)
					return
				}
				observability.RecordRateLimitDecision(r.Context(), rl.scope, "backend_error_open")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				observability.RecordRateLimitDecision(r.Context(), rl.scope, "rejected")
				w.Header().Set("Retry-After", retryAfterHeader(retryAfter))
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			observability.RecordRateLimitDecision(r.Context(), rl.scope, "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterHeader(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func clientIPKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	return host
}

// UserOrIPKey buckets authenticated callers by user id and everyone else by client address.
func UserOrIPKey(r *http.Request) string {
	if id, ok := UserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatUint(uint64(id), 10)
	}
	return "ip:" + clientIPKey(r)
}

type localWindow struct {
	count   int
	resetAt time.Time
}

type LocalFixedWindowLimiter struct {
	mu      sync.Mutex
	windows map[string]localWindow
	now     func() time.Time
}

func NewLocalFixedWindowLimiter() *LocalFixedWindowLimiter {
	return &LocalFixedWindowLimiter{windows: map[string]localWindow{}, now: time.Now}
}

func (l *LocalFixedWindowLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = localWindow{resetAt: now.Add(window)}
	}
	w.count++
	l.windows[key] = w
	if len(l.windows) > 10000 {
		for k, v := range l.windows {
			if !now.Before(v.resetAt) {
				delete(l.windows, k)
			}
		}
	}
	return w.count <= limit, w.resetAt.Sub(now), nil
}
