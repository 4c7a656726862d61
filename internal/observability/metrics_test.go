package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sandeepkv93/campus-notify-core/internal/config"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func recordEveryHelper(ctx context.Context) {
	RecordCredentialIssue(ctx, "password_reset", "issued")
	RecordCredentialVerify(ctx, "signup_verify", "consumed")
	RecordCredentialTicket(ctx, "password_reset", "redeemed")
	RecordCredentialSweep(ctx, "success", 4)
	RecordVerifyGuardEvent(ctx, "check", "blocked")
	RecordVerifyGuardCooldown(ctx, "register_failure", 30*time.Second)
	RecordNotificationDispatch(ctx, "post_comment", "persisted")
	RecordNotificationRecipients(ctx, "new_post_admin", 3)
	RecordChannelDelivery(ctx, "realtime", "skipped", 2*time.Millisecond)
	RecordRateLimitDecision(ctx, "credentials", "allow")
	RecordAccessTokenValidation(ctx, "ok", "header")
	RecordRepositoryOperation(ctx, "credential", "consume", "success")
	RecordToolCommandRun(ctx, "opsctl", "sweep", "success")
	RecordHealthCheckResult(ctx, "db", "ready")
	RecordHealthCheckDuration(ctx, "db", 5*time.Millisecond)
}

func TestRecordMetricHelpersNoPanicWhenUninitialized(t *testing.T) {
	metricsMu.Lock()
	appMetrics = nil
	metricsMu.Unlock()

	recordEveryHelper(context.Background())
}

func TestRecordMetricHelpersEmitExpectedLabelCardinality(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	m, err := newAppMetrics(provider.Meter("observability-test"))
	if err != nil {
		t.Fatalf("create app metrics: %v", err)
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	defer func() {
		metricsMu.Lock()
		appMetrics = nil
		metricsMu.Unlock()
	}()

	recordEveryHelper(ctx)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	expected := map[string]int{
		"credential.issue.events":             2,
		"credential.verify.events":            2,
		"credential.ticket.events":            2,
		"credential.sweep.runs":               1,
		"credential.sweep.deleted_rows":       0,
		"credential.verify_guard.events":      2,
		"credential.verify_guard.cooldown":    1,
		"notification.dispatch.events":        2,
		"notification.recipients":             1,
		"notification.delivery.events":        2,
		"notification.delivery.duration":      2,
		"http.rate_limit.decisions":           2,
		"auth.access_token.validation.events": 2,
		"repository.operations":               3,
		"tool.command.runs":                   3,
		"health.check.results":                2,
		"health.check.duration":               1,
	}

	observed := collectLabelCardinality(t, rm)
	for metricName, want := range expected {
		got, ok := observed[metricName]
		if !ok {
			t.Fatalf("missing metric datapoint for %s", metricName)
		}
		if got != want {
			t.Fatalf("metric %s label cardinality mismatch: got=%d want=%d", metricName, got, want)
		}
	}
}

func TestInitMetricsDisabledReturnsProvider(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{OTELMetricsEnabled: false}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("init metrics disabled: %v", err)
	}
	if mp == nil {
		t.Fatal("expected non-nil meter provider")
	}
	_ = mp.Shutdown(ctx)
}

func collectLabelCardinality(t *testing.T, rm metricdata.ResourceMetrics) map[string]int {
	t.Helper()
	out := map[string]int{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Sum[float64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Histogram[int64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Histogram[float64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			}
		}
	}
	return out
}
