package di

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sandeepkv93/campus-notify-core/internal/clock"
	"github.com/sandeepkv93/campus-notify-core/internal/config"
	"github.com/sandeepkv93/campus-notify-core/internal/database"
	"github.com/sandeepkv93/campus-notify-core/internal/domain"
	"github.com/sandeepkv93/campus-notify-core/internal/http/middleware"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
	"github.com/sandeepkv93/campus-notify-core/internal/service"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newDIDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:di_"+name+"?mode=memory&cache=shared"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestProvideHTTPServer(t *testing.T) {
	srv := provideHTTPServer(&config.Config{HTTPPort: "9999"}, nil)
	if srv.Addr != ":9999" {
		t.Fatalf("unexpected addr: %s", srv.Addr)
	}
	if srv.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("unexpected read header timeout: %v", srv.ReadHeaderTimeout)
	}
}

func TestProvideRouterDependenciesWithoutRedis(t *testing.T) {
	cfg := &config.Config{CORSAllowedOrigins: []string{"http://localhost:3000"}, APIRateLimitPerMin: 100, CredentialRateLimitPerMin: 10, OTELTracingEnabled: true}
	dep := provideRouterDependencies(cfg, nil, nil, nil, nil, nil)
	if dep.APIRateLimitPerMin != 100 || dep.CredentialRateLimitPerMin != 10 {
		t.Fatalf("unexpected rate limits: %+v", dep)
	}
	if _, ok := dep.APILimiter.(*middleware.LocalFixedWindowLimiter); !ok {
		t.Fatalf("expected local api limiter, got %T", dep.APILimiter)
	}
	if _, ok := dep.CredentialLimiter.(*middleware.TokenBucketLimiter); !ok {
		t.Fatalf("expected token bucket credential limiter, got %T", dep.CredentialLimiter)
	}
	if dep.CredentialFailureMode != middleware.FailOpen || !dep.EnableOTelHTTP {
		t.Fatalf("unexpected mode/otel: %+v", dep)
	}
}

func TestProvideRouterDependenciesWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	dep := provideRouterDependencies(&config.Config{RedisPrefix: "campus"}, client, nil, nil, nil, nil)
	if _, ok := dep.CredentialLimiter.(*middleware.RedisFixedWindowLimiter); !ok {
		t.Fatalf("expected redis credential limiter, got %T", dep.CredentialLimiter)
	}
	if dep.CredentialFailureMode != middleware.FailClosed {
		t.Fatalf("expected credential limiter to fail closed behind redis, got %q", dep.CredentialFailureMode)
	}
	if ok, _, err := dep.APILimiter.Allow(context.Background(), "user:1", 1, time.Minute); err != nil || !ok {
		t.Fatalf("api limiter: ok=%v err=%v", ok, err)
	}
	if !mr.Exists("campus:rl:api:user:1") {
		t.Fatalf("expected prefixed api window key, got %v", mr.Keys())
	}
}

func TestProvideRealtimePublisherNilWithoutRedis(t *testing.T) {
	if p := provideRealtimePublisher(&config.Config{}, nil, clock.New()); p != nil {
		t.Fatalf("expected nil interface, got %T", p)
	}
	ch := provideRealtimeChannel(&config.Config{}, provideRealtimePublisher(&config.Config{}, nil, clock.New()))
	out := ch.Deliver(context.Background(), service.DeliveryAddress{UserID: 1}, service.DeliveryPayload{})
	if out.Status != service.DeliverySkipped {
		t.Fatalf("expected realtime skipped without redis, got %+v", out)
	}
}

func TestProvideVerifyAttemptGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tests := []struct {
		name   string
		cfg    *config.Config
		client redis.UniversalClient
		want   string
	}{
		{name: "disabled", cfg: &config.Config{VerifyGuardEnabled: false}, client: client, want: "noop"},
		{name: "no redis", cfg: &config.Config{VerifyGuardEnabled: true}, client: nil, want: "noop"},
		{name: "redis", cfg: &config.Config{VerifyGuardEnabled: true, RedisPrefix: "campus"}, client: client, want: "redis"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			guard := provideVerifyAttemptGuard(tc.cfg, tc.client, clock.New(), quietLogger())
			switch guard.(type) {
			case *service.NoopVerifyAttemptGuard:
				if tc.want != "noop" {
					t.Fatalf("expected %s guard, got noop", tc.want)
				}
			case *service.RedisVerifyAttemptGuard:
				if tc.want != "redis" {
					t.Fatalf("expected %s guard, got redis", tc.want)
				}
			default:
				t.Fatalf("unexpected guard %T", guard)
			}
		})
	}
}

func TestProvideExpirySweeperAndReadiness(t *testing.T) {
	db := newDIDB(t, "readiness")
	repo := repository.NewCredentialRepository(db)
	if s := provideExpirySweeper(&config.Config{SweepEnabled: false}, repo, clock.New(), quietLogger()); s != nil {
		t.Fatal("expected no sweeper when disabled")
	}
	sweeper := provideExpirySweeper(&config.Config{SweepEnabled: true, SweepInterval: time.Hour}, repo, clock.New(), quietLogger())
	if sweeper == nil {
		t.Fatal("expected sweeper")
	}

	runner := provideReadinessProbeRunner(&config.Config{ReadinessProbeTimeout: time.Second}, db, nil, sweeper)
	ready, results := runner.Ready(context.Background())
	if !ready {
		t.Fatalf("expected ready, got %+v", results)
	}
	if len(results) != 2 || results[0].Name != "db" || results[1].Name != "credential_sweeper" {
		t.Fatalf("unexpected checks %+v", results)
	}
}

func TestOpsRuntime(t *testing.T) {
	ctx := context.Background()
	db := newDIDB(t, "ops")
	clk := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	ops := NewOpsRuntime(&config.Config{SweepInterval: time.Hour}, db, clk, repository.NewCredentialRepository(db))

	statuses, err := ops.MigrationStatus()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !database.Pending(statuses) {
		t.Fatal("expected pending migrations on a fresh database")
	}
	if err := ops.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	statuses, _ = ops.MigrationStatus()
	if database.Pending(statuses) {
		t.Fatalf("expected all tables after migrate, got %+v", statuses)
	}

	expired := &domain.OneTimeCredential{
		Identity:  "old@campus.example",
		Purpose:   domain.CredentialPurposeSignupVerify,
		CodeHash:  "h1",
		CreatedAt: clk.Now().Add(-2 * time.Hour),
		ExpiresAt: clk.Now().Add(-time.Hour),
	}
	if err := db.Create(expired).Error; err != nil {
		t.Fatalf("seed credential: %v", err)
	}
	stats, err := ops.CredentialStats(ctx)
	if err != nil || stats.Total != 1 || stats.Expired != 1 {
		t.Fatalf("unexpected stats %+v err=%v", stats, err)
	}
	deleted, err := ops.Sweep(ctx, quietLogger())
	if err != nil || deleted != 1 {
		t.Fatalf("sweep deleted=%d err=%v", deleted, err)
	}

	if err := db.Create(&domain.User{Email: "dean@campus.example", FullName: "Dean"}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	report, err := ops.PromoteAdmins(ctx, []string{"Dean@Campus.example", "ghost@campus.example"})
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if len(report.Promoted) != 1 || len(report.Missing) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRouterServesThroughProviders(t *testing.T) {
	cfg := &config.Config{AccessTokenSecret: "di-test-secret-0123456789abcdefgh", AccessTokenIssuer: "iss", AccessTokenAudience: "aud"}
	tokens := provideAccessTokenManager(cfg)
	dep := provideRouterDependencies(cfg, nil, tokens, nil, nil, nil)
	if dep.AccessTokens == nil {
		t.Fatal("expected token parser wired")
	}
	rr := httptest.NewRecorder()
	provideHTTPServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })).
		Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected server to carry the handler, got %d", rr.Code)
	}
}
