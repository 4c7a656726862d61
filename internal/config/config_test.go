package config

import (
	"strings"
	"testing"
	"time"
)

func validConfigForTest() *Config {
	return &Config{
		Env:                          "development",
		DatabaseDriver:               "postgres",
		DatabaseURL:                  "postgres://x",
		AccessTokenSecret:            "abcdefghijklmnopqrstuvwxyz123456",
		APIRateLimitPerMin:           120,
		CredentialRateLimitPerMin:    20,
		CredentialTTL:                10 * time.Minute,
		CredentialMaxPerHour:         5,
		CredentialRateWindow:         time.Hour,
		CredentialTicketTTL:          15 * time.Minute,
		SweepEnabled:                 true,
		SweepInterval:                time.Hour,
		VerifyGuardFreeAttempts:      5,
		VerifyGuardBaseDelay:         30 * time.Second,
		VerifyGuardMaxDelay:          15 * time.Minute,
		RealtimeTimeout:              500 * time.Millisecond,
		EmailProvider:                EmailProviderLog,
		EmailTimeout:                 5 * time.Second,
		EmailSenderAddress:           "no-reply@campus.local",
		ShutdownTimeout:              20 * time.Second,
		ShutdownHTTPDrainTimeout:     10 * time.Second,
		ShutdownObservabilityTimeout: 8 * time.Second,
		OTELTraceSamplingRatio:       1.0,
		OTELMetricsExportInterval:    10 * time.Second,
		OTELLogLevel:                 "info",
	}
}

func TestValidateDevelopmentProfileAllowsLogEmail(t *testing.T) {
	if err := validConfigForTest().Validate(); err != nil {
		t.Fatalf("expected dev config to validate: %v", err)
	}
}

func TestValidateProdProfileStrictRules(t *testing.T) {
	cfg := validConfigForTest()
	cfg.Env = "production"
	cfg.DatabaseDriver = "sqlite"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected strict prod validation errors")
	}
	for _, want := range []string{"EMAIL_PROVIDER=log", "DATABASE_DRIVER=sqlite"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfigForTest()
	cfg.DatabaseURL = ""
	cfg.CredentialMaxPerHour = 0
	cfg.RealtimeTimeout = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := strings.Count(err.Error(), ";"); got != 2 {
		t.Fatalf("expected three joined errors, got %q", err.Error())
	}
}

func TestLoadAppliesCredentialDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://campus")
	t.Setenv("ACCESS_TOKEN_SECRET", "abcdefghijklmnopqrstuvwxyz123456")
	t.Setenv("OTEL_METRICS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CredentialTTL != 10*time.Minute || cfg.CredentialMaxPerHour != 5 || cfg.CredentialRateWindow != time.Hour {
		t.Fatalf("unexpected credential defaults: ttl=%v max=%d window=%v", cfg.CredentialTTL, cfg.CredentialMaxPerHour, cfg.CredentialRateWindow)
	}
	if cfg.SweepInterval != time.Hour || cfg.RealtimeTimeout != 500*time.Millisecond || cfg.EmailTimeout != 5*time.Second {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://campus")
	t.Setenv("ACCESS_TOKEN_SECRET", "abcdefghijklmnopqrstuvwxyz123456")
	t.Setenv("CREDENTIAL_TTL", "ten minutes")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "parse CREDENTIAL_TTL") {
		t.Fatalf("expected duration parse error, got %v", err)
	}
}

func TestEffectiveEmailProviderFallsBackWithoutCredentials(t *testing.T) {
	cfg := validConfigForTest()
	cfg.EmailProvider = EmailProviderBrevo
	if got := cfg.EffectiveEmailProvider(); got != EmailProviderLog {
		t.Fatalf("expected log fallback, got %s", got)
	}
	cfg.BrevoAPIKey = "xkeysib-123"
	if got := cfg.EffectiveEmailProvider(); got != EmailProviderBrevo {
		t.Fatalf("expected brevo, got %s", got)
	}
	cfg.EmailProvider = EmailProviderSMTP
	if got := cfg.EffectiveEmailProvider(); got != EmailProviderLog {
		t.Fatalf("expected log fallback for smtp without host, got %s", got)
	}
}
