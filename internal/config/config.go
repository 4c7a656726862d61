package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EmailProviderBrevo = "brevo"
	EmailProviderSMTP  = "smtp"
	EmailProviderLog   = "log"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseDriver string
	DatabaseURL    string

	AccessTokenSecret   string
	AccessTokenIssuer   string
	AccessTokenAudience string
	CORSAllowedOrigins  []string

	APIRateLimitPerMin        int
	CredentialRateLimitPerMin int

	CredentialTTL        time.Duration
	CredentialMaxPerHour int
	CredentialRateWindow time.Duration
	CredentialTicketTTL  time.Duration

	SweepEnabled  bool
	SweepInterval time.Duration
	SweepGrace    time.Duration

	VerifyGuardEnabled      bool
	VerifyGuardFreeAttempts int
	VerifyGuardBaseDelay    time.Duration
	VerifyGuardMultiplier   float64
	VerifyGuardMaxDelay     time.Duration
	VerifyGuardResetWindow  time.Duration

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	RealtimeTimeout time.Duration

	EmailProvider      string
	EmailTimeout       time.Duration
	EmailSenderAddress string
	EmailSenderName    string
	BrevoAPIKey        string
	BrevoAPIURL        string
	SMTPHost           string
	SMTPPort           string
	SMTPUsername       string
	SMTPPassword       string
	AppBaseURL         string

	ReadinessProbeTimeout        time.Duration
	ServerStartGracePeriod       time.Duration
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	cfg := &Config{
		Env:                       env,
		HTTPPort:                  getEnv("HTTP_PORT", "8080"),
		DatabaseDriver:            strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		AccessTokenSecret:         os.Getenv("ACCESS_TOKEN_SECRET"),
		AccessTokenIssuer:         getEnv("ACCESS_TOKEN_ISSUER", "campus-notify-core"),
		AccessTokenAudience:       getEnv("ACCESS_TOKEN_AUDIENCE", "campus-notify-core-api"),
		CORSAllowedOrigins:        splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		APIRateLimitPerMin:        getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		CredentialRateLimitPerMin: getEnvInt("CREDENTIAL_RATE_LIMIT_PER_MIN", 20),
		CredentialMaxPerHour:      getEnvInt("CREDENTIAL_MAX_PER_HOUR", 5),
		SweepEnabled:              getEnvBool("SWEEP_ENABLED", true),
		VerifyGuardEnabled:        getEnvBool("VERIFY_GUARD_ENABLED", true),
		VerifyGuardFreeAttempts:   getEnvInt("VERIFY_GUARD_FREE_ATTEMPTS", 5),
		VerifyGuardMultiplier:     getEnvFloat("VERIFY_GUARD_MULTIPLIER", 2),
		RedisEnabled:              getEnvBool("REDIS_ENABLED", false),
		RedisAddr:                 getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:             os.Getenv("REDIS_PASSWORD"),
		RedisDB:                   getEnvInt("REDIS_DB", 0),
		RedisPrefix:               getEnv("REDIS_PREFIX", "campus"),
		EmailProvider:             strings.ToLower(getEnv("EMAIL_PROVIDER", EmailProviderLog)),
		EmailSenderAddress:        getEnv("EMAIL_SENDER_ADDRESS", "no-reply@campus.local"),
		EmailSenderName:           getEnv("EMAIL_SENDER_NAME", "Campus Community"),
		BrevoAPIKey:               os.Getenv("BREVO_API_KEY"),
		BrevoAPIURL:               getEnv("BREVO_API_URL", "https://api.brevo.com/v3/smtp/email"),
		SMTPHost:                  os.Getenv("SMTP_HOST"),
		SMTPPort:                  getEnv("SMTP_PORT", "587"),
		SMTPUsername:              os.Getenv("SMTP_USERNAME"),
		SMTPPassword:              os.Getenv("SMTP_PASSWORD"),
		AppBaseURL:                strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "campus-notify-core"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"CREDENTIAL_TTL", "10m", &cfg.CredentialTTL},
		{"CREDENTIAL_RATE_WINDOW", "1h", &cfg.CredentialRateWindow},
		{"CREDENTIAL_TICKET_TTL", "15m", &cfg.CredentialTicketTTL},
		{"SWEEP_INTERVAL", "1h", &cfg.SweepInterval},
		{"SWEEP_GRACE", "0s", &cfg.SweepGrace},
		{"VERIFY_GUARD_BASE_DELAY", "30s", &cfg.VerifyGuardBaseDelay},
		{"VERIFY_GUARD_MAX_DELAY", "15m", &cfg.VerifyGuardMaxDelay},
		{"VERIFY_GUARD_RESET_WINDOW", "1h", &cfg.VerifyGuardResetWindow},
		{"REALTIME_TIMEOUT", "500ms", &cfg.RealtimeTimeout},
		{"EMAIL_TIMEOUT", "5s", &cfg.EmailTimeout},
		{"READINESS_PROBE_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"SERVER_START_GRACE_PERIOD", "0s", &cfg.ServerStartGracePeriod},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite" {
		errs = append(errs, "DATABASE_DRIVER must be one of postgres, sqlite")
	}
	if len(c.AccessTokenSecret) < 32 {
		errs = append(errs, "ACCESS_TOKEN_SECRET must be at least 32 chars")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.CredentialRateLimitPerMin <= 0 {
		errs = append(errs, "CREDENTIAL_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.CredentialTTL <= 0 || c.CredentialTTL > time.Hour {
		errs = append(errs, "CREDENTIAL_TTL must be between 1s and 1h")
	}
	if c.CredentialMaxPerHour <= 0 {
		errs = append(errs, "CREDENTIAL_MAX_PER_HOUR must be > 0")
	}
	if c.CredentialRateWindow <= 0 {
		errs = append(errs, "CREDENTIAL_RATE_WINDOW must be > 0")
	}
	if c.CredentialTicketTTL <= 0 || c.CredentialTicketTTL > 24*time.Hour {
		errs = append(errs, "CREDENTIAL_TICKET_TTL must be between 1s and 24h")
	}
	if c.SweepEnabled && c.SweepInterval <= 0 {
		errs = append(errs, "SWEEP_INTERVAL must be > 0 when SWEEP_ENABLED=true")
	}
	if c.SweepGrace < 0 {
		errs = append(errs, "SWEEP_GRACE must be >= 0")
	}
	if c.VerifyGuardFreeAttempts < 0 {
		errs = append(errs, "VERIFY_GUARD_FREE_ATTEMPTS must be >= 0")
	}
	if c.VerifyGuardMaxDelay < c.VerifyGuardBaseDelay {
		errs = append(errs, "VERIFY_GUARD_MAX_DELAY must be >= VERIFY_GUARD_BASE_DELAY")
	}
	if c.RedisEnabled && strings.TrimSpace(c.RedisAddr) == "" {
		errs = append(errs, "REDIS_ADDR is required when REDIS_ENABLED=true")
	}
	if c.RealtimeTimeout <= 0 || c.RealtimeTimeout > 5*time.Second {
		errs = append(errs, "REALTIME_TIMEOUT must be between 1ms and 5s")
	}
	if c.EmailTimeout <= 0 || c.EmailTimeout > time.Minute {
		errs = append(errs, "EMAIL_TIMEOUT must be between 1ms and 1m")
	}
	switch c.EmailProvider {
	case EmailProviderBrevo, EmailProviderSMTP, EmailProviderLog:
	default:
		errs = append(errs, "EMAIL_PROVIDER must be one of brevo, smtp, log")
	}
	if c.EmailSenderAddress == "" {
		errs = append(errs, "EMAIL_SENDER_ADDRESS is required")
	}
	if isProdLikeEnv(c.Env) {
		if c.EmailProvider == EmailProviderLog {
			errs = append(errs, "EMAIL_PROVIDER=log is not allowed in production")
		}
		if c.DatabaseDriver == "sqlite" {
			errs = append(errs, "DATABASE_DRIVER=sqlite is not allowed in production")
		}
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.ShutdownHTTPDrainTimeout > c.ShutdownTimeout || c.ShutdownObservabilityTimeout > c.ShutdownTimeout {
		errs = append(errs, "shutdown phase timeouts must not exceed SHUTDOWN_TIMEOUT")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// EffectiveEmailProvider degrades to the log transport when the configured provider
// has no credentials to send with.
func (c *Config) EffectiveEmailProvider() string {
	switch c.EmailProvider {
	case EmailProviderBrevo:
		if strings.TrimSpace(c.BrevoAPIKey) == "" {
			return EmailProviderLog
		}
	case EmailProviderSMTP:
		if strings.TrimSpace(c.SMTPHost) == "" {
			return EmailProviderLog
		}
	}
	return c.EmailProvider
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
