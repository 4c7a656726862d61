package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/campus-notify-core/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
)

const meterName = "campus-notify-core"

type AppMetrics struct {
	credentialIssueCounter       metric.Int64Counter
	credentialVerifyCounter      metric.Int64Counter
	credentialTicketCounter      metric.Int64Counter
	credentialSweepCounter       metric.Int64Counter
	credentialSweepDeleted       metric.Float64Histogram
	verifyGuardCounter           metric.Int64Counter
	verifyGuardCooldown          metric.Float64Histogram
	notificationDispatchCounter  metric.Int64Counter
	notificationRecipients       metric.Float64Histogram
	channelDeliveryCounter       metric.Int64Counter
	channelDeliveryDuration      metric.Float64Histogram
	rateLimitDecisionCounter     metric.Int64Counter
	accessTokenValidationCounter metric.Int64Counter
	middlewareValidationCounter  metric.Int64Counter
	repositoryOpsCounter         metric.Int64Counter
	toolCommandRuns              metric.Int64Counter
	healthCheckResultCounter     metric.Int64Counter
	healthCheckDuration          metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := serviceResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "notification.delivery.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(meterName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	m := &AppMetrics{}
	var err error
	counters := []struct {
		name string
		dst  *metric.Int64Counter
	}{
		{"credential.issue.events", &m.credentialIssueCounter},
		{"credential.verify.events", &m.credentialVerifyCounter},
		{"credential.ticket.events", &m.credentialTicketCounter},
		{"credential.sweep.runs", &m.credentialSweepCounter},
		{"credential.verify_guard.events", &m.verifyGuardCounter},
		{"notification.dispatch.events", &m.notificationDispatchCounter},
		{"notification.delivery.events", &m.channelDeliveryCounter},
		{"http.rate_limit.decisions", &m.rateLimitDecisionCounter},
		{"auth.access_token.validation.events", &m.accessTokenValidationCounter},
		{"http.middleware.validation.events", &m.middlewareValidationCounter},
		{"repository.operations", &m.repositoryOpsCounter},
		{"tool.command.runs", &m.toolCommandRuns},
		{"health.check.results", &m.healthCheckResultCounter},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name); err != nil {
			return nil, err
		}
	}

	histograms := []struct {
		name string
		unit string
		desc string
		dst  *metric.Float64Histogram
	}{
		{"credential.sweep.deleted_rows", "", "Rows removed per expiry sweep", &m.credentialSweepDeleted},
		{"credential.verify_guard.cooldown", "s", "Cooldown returned by the verify attempt guard", &m.verifyGuardCooldown},
		{"notification.recipients", "", "Recipients resolved per dispatched event", &m.notificationRecipients},
		{"notification.delivery.duration", "s", "Duration of channel delivery attempts in seconds", &m.channelDeliveryDuration},
		{"health.check.duration", "s", "Duration of health dependency checks in seconds", &m.healthCheckDuration},
	}
	for _, h := range histograms {
		opts := []metric.Float64HistogramOption{metric.WithDescription(h.desc)}
		if h.unit != "" {
			opts = append(opts, metric.WithUnit(h.unit))
		}
		if *h.dst, err = meter.Float64Histogram(h.name, opts...); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func RecordCredentialIssue(ctx context.Context, purpose, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.credentialIssueCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("purpose", purpose),
		attribute.String("outcome", outcome),
	))
}

func RecordCredentialVerify(ctx context.Context, purpose, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.credentialVerifyCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("purpose", purpose),
		attribute.String("outcome", outcome),
	))
}

func RecordCredentialTicket(ctx context.Context, purpose, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.credentialTicketCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("purpose", purpose),
		attribute.String("outcome", outcome),
	))
}

func RecordCredentialSweep(ctx context.Context, outcome string, deleted int64) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.credentialSweepCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == "success" {
		m.credentialSweepDeleted.Record(ctx, float64(deleted))
	}
}

func RecordVerifyGuardEvent(ctx context.Context, action, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.verifyGuardCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func RecordVerifyGuardCooldown(ctx context.Context, action string, cooldown time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.verifyGuardCooldown.Record(ctx, cooldown.Seconds(), metric.WithAttributes(
		attribute.String("action", action),
	))
}

func RecordNotificationDispatch(ctx context.Context, kind, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.notificationDispatchCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func RecordNotificationRecipients(ctx context.Context, kind string, count int) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.notificationRecipients.Record(ctx, float64(count), metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

func RecordChannelDelivery(ctx context.Context, channel, outcome string, duration time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("outcome", outcome),
	)
	m.channelDeliveryCounter.Add(ctx, 1, attrs)
	m.channelDeliveryDuration.Record(ctx, duration.Seconds(), attrs)
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
	))
}

func RecordAccessTokenValidation(ctx context.Context, outcome, source string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.accessTokenValidationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("source", source),
	))
}

func RecordMiddlewareValidationEvent(ctx context.Context, middleware, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.middlewareValidationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("middleware", middleware),
		attribute.String("outcome", outcome),
	))
}

func RecordRepositoryOperation(ctx context.Context, repo, operation, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.repositoryOpsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("repository", repo),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordToolCommandRun(ctx context.Context, tool, command, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.toolCommandRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckDuration(ctx context.Context, check string, duration time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("check", check),
	))
}
