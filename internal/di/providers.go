package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-notify-core/internal/app"
	"github.com/sandeepkv93/campus-notify-core/internal/clock"
	"github.com/sandeepkv93/campus-notify-core/internal/config"
	"github.com/sandeepkv93/campus-notify-core/internal/database"
	"github.com/sandeepkv93/campus-notify-core/internal/delivery"
	"github.com/sandeepkv93/campus-notify-core/internal/health"
	"github.com/sandeepkv93/campus-notify-core/internal/http/handler"
	"github.com/sandeepkv93/campus-notify-core/internal/http/middleware"
	"github.com/sandeepkv93/campus-notify-core/internal/http/router"
	"github.com/sandeepkv93/campus-notify-core/internal/observability"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
	"github.com/sandeepkv93/campus-notify-core/internal/security"
	"github.com/sandeepkv93/campus-notify-core/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideClock,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewCredentialRepository,
	repository.NewNotificationRepository,
	wire.Bind(new(service.UserDirectory), new(repository.UserRepository)),
)

var DeliverySet = wire.NewSet(
	delivery.NewEmailTransport,
	provideRealtimePublisher,
	provideRealtimeChannel,
	provideEmailChannel,
)

var ServiceSet = wire.NewSet(
	provideVerifyAttemptGuard,
	provideCredentialRateLimiter,
	provideCredentialIssuer,
	provideEmailRenderer,
	provideNotificationDispatcher,
	provideAccountRecoveryService,
	provideExpirySweeper,
	wire.Bind(new(service.CredentialFlows), new(*service.AccountRecoveryService)),
	wire.Bind(new(service.NotificationInbox), new(*service.NotificationDispatcher)),
)

var HTTPSet = wire.NewSet(
	provideAccessTokenManager,
	handler.NewCredentialHandler,
	handler.NewNotificationHandler,
	provideReadinessProbeRunner,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RedisEnabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideClock() clock.Clock { return clock.New() }

// provideRealtimePublisher returns a nil interface, not a typed nil, when Redis is off
// so the realtime channel reports itself as not configured.
func provideRealtimePublisher(cfg *config.Config, client redis.UniversalClient, clk clock.Clock) service.RealtimePublisher {
	if client == nil {
		return nil
	}
	return delivery.NewRedisRealtimePublisher(client, cfg.RedisPrefix, clk)
}

func provideRealtimeChannel(cfg *config.Config, publisher service.RealtimePublisher) *service.RealtimeChannel {
	return service.NewRealtimeChannel(publisher, cfg.RealtimeTimeout)
}

func provideEmailChannel(cfg *config.Config, transport service.EmailTransport) *service.EmailChannel {
	return service.NewEmailChannel(transport, cfg.EmailTimeout)
}

func provideVerifyAttemptGuard(cfg *config.Config, client redis.UniversalClient, clk clock.Clock, logger *slog.Logger) service.VerifyAttemptGuard {
	if !cfg.VerifyGuardEnabled {
		return service.NewNoopVerifyAttemptGuard()
	}
	if client == nil {
		logger.Warn("verify attempt guard enabled without redis, guard disabled")
		return service.NewNoopVerifyAttemptGuard()
	}
	return service.NewRedisVerifyAttemptGuard(client, cfg.RedisPrefix+":verify_guard", service.VerifyAttemptPolicy{
		FreeAttempts: cfg.VerifyGuardFreeAttempts,
		BaseDelay:    cfg.VerifyGuardBaseDelay,
		Multiplier:   cfg.VerifyGuardMultiplier,
		MaxDelay:     cfg.VerifyGuardMaxDelay,
		ResetWindow:  cfg.VerifyGuardResetWindow,
	}, clk)
}

func provideCredentialRateLimiter(cfg *config.Config, repo repository.CredentialRepository) *service.CredentialRateLimiter {
	return service.NewCredentialRateLimiter(repo, cfg.CredentialRateWindow, cfg.CredentialMaxPerHour)
}

func provideCredentialIssuer(
	cfg *config.Config,
	repo repository.CredentialRepository,
	limiter *service.CredentialRateLimiter,
	guard service.VerifyAttemptGuard,
	clk clock.Clock,
	logger *slog.Logger,
) *service.CredentialIssuer {
	policy := service.CredentialPolicy{TTL: cfg.CredentialTTL, TicketTTL: cfg.CredentialTicketTTL}
	return service.NewCredentialIssuer(repo, limiter, guard, clk, policy, logger)
}

func provideEmailRenderer(cfg *config.Config) *service.EmailRenderer {
	return service.NewEmailRenderer(cfg.EmailSenderName, cfg.AppBaseURL)
}

func provideNotificationDispatcher(
	repo repository.NotificationRepository,
	users service.UserDirectory,
	realtime *service.RealtimeChannel,
	email *service.EmailChannel,
	renderer *service.EmailRenderer,
	clk clock.Clock,
	logger *slog.Logger,
) *service.NotificationDispatcher {
	return service.NewNotificationDispatcher(repo, users, realtime, email, renderer, clk, logger)
}

func provideAccountRecoveryService(
	issuer *service.CredentialIssuer,
	users repository.UserRepository,
	email *service.EmailChannel,
	renderer *service.EmailRenderer,
	dispatcher *service.NotificationDispatcher,
	clk clock.Clock,
	logger *slog.Logger,
) *service.AccountRecoveryService {
	return service.NewAccountRecoveryService(issuer, users, email, renderer, dispatcher, clk, logger)
}

func provideExpirySweeper(cfg *config.Config, repo repository.CredentialRepository, clk clock.Clock, logger *slog.Logger) *service.ExpirySweeper {
	if !cfg.SweepEnabled {
		return nil
	}
	return service.NewExpirySweeper(repo, clk, cfg.SweepInterval, cfg.SweepGrace, logger)
}

func provideAccessTokenManager(cfg *config.Config) *security.AccessTokenManager {
	return security.NewAccessTokenManager(cfg.AccessTokenSecret, cfg.AccessTokenIssuer, cfg.AccessTokenAudience)
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient, sweeper *service.ExpirySweeper) *health.ProbeRunner {
	checkers := []health.Checker{health.NewDBChecker(db), health.NewRedisChecker(redisClient)}
	if sweeper != nil {
		checkers = append(checkers, health.NewSweeperChecker(sweeper))
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}

// provideRouterDependencies shares request windows through Redis when it is available.
// The inbox limiter fails open; the credential limiter fails closed behind Redis since
// it guards code issuance, and otherwise uses a process-local token bucket.
func provideRouterDependencies(
	cfg *config.Config,
	redisClient redis.UniversalClient,
	tokens *security.AccessTokenManager,
	credentials *handler.CredentialHandler,
	notifications *handler.NotificationHandler,
	readiness *health.ProbeRunner,
) router.Dependencies {
	var apiLimiter, credentialLimiter middleware.Limiter
	credentialMode := middleware.FailOpen
	if redisClient != nil {
		credentialMode = middleware.FailClosed
		apiLimiter = middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RedisPrefix+":rl:api")
		credentialLimiter = middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RedisPrefix+":rl:credentials")
	} else {
		apiLimiter = middleware.NewLocalFixedWindowLimiter()
		credentialLimiter = middleware.NewTokenBucketLimiter(10 * time.Minute)
	}
	return router.Dependencies{
		CredentialHandler:         credentials,
		NotificationHandler:       notifications,
		AccessTokens:              tokens,
		CORSOrigins:               cfg.CORSAllowedOrigins,
		APILimiter:                apiLimiter,
		CredentialLimiter:         credentialLimiter,
		APIRateLimitPerMin:        cfg.APIRateLimitPerMin,
		CredentialRateLimitPerMin: cfg.CredentialRateLimitPerMin,
		CredentialFailureMode:     credentialMode,
		Readiness:                 readiness,
		EnableOTelHTTP:            cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
