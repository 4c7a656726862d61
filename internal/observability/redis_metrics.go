package observability

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var redisInstrumentationOnce sync.Once

// InstrumentRedisClient installs the command hook once per process.
func InstrumentRedisClient(client redis.UniversalClient, logger *slog.Logger) {
	if client == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	redisInstrumentationOnce.Do(func() {
		hook, err := newRedisMetricsHook(otel.Meter(meterName), client.PoolStats)
		if err != nil {
			logger.Warn("redis instrumentation disabled", "error", err)
			return
		}
		client.AddHook(hook)
		logger.Info("redis instrumentation enabled")
	})
}

type redisMetricsHook struct {
	cmdTotal         metric.Int64Counter
	cmdErrors        metric.Int64Counter
	cmdLatency       metric.Float64Histogram
	publishReceivers metric.Int64Histogram
}

func newRedisMetricsHook(meter metric.Meter, poolStats func() *redis.PoolStats) (*redisMetricsHook, error) {
	h := &redisMetricsHook{}
	var err error
	if h.cmdTotal, err = meter.Int64Counter("redis.command.total"); err != nil {
		return nil, err
	}
	if h.cmdErrors, err = meter.Int64Counter("redis.command.errors"); err != nil {
		return nil, err
	}
	if h.cmdLatency, err = meter.Float64Histogram("redis.command.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Redis command latency in seconds"),
	); err != nil {
		return nil, err
	}
	// Realtime fan-out publishes to per-user channels; zero receivers means the user had no live session.
	if h.publishReceivers, err = meter.Int64Histogram("redis.publish.receivers",
		metric.WithDescription("Subscribers that received a realtime publish"),
	); err != nil {
		return nil, err
	}

	if poolStats != nil {
		saturation, err := meter.Float64ObservableGauge("redis.pool.saturation",
			metric.WithUnit("1"),
			metric.WithDescription("Redis pool saturation ratio (used_conns / total_conns)"),
		)
		if err != nil {
			return nil, err
		}
		_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			if stats := poolStats(); stats != nil && stats.TotalConns > 0 {
				used := stats.TotalConns - stats.IdleConns
				o.ObserveFloat64(saturation, clampRatio(float64(used)/float64(stats.TotalConns)))
			}
			return nil
		}, saturation)
		if err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *redisMetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *redisMetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(ctx, cmd, time.Since(start))
		return err
	}
}

func (h *redisMetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.cmdLatency.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("command", "pipeline"),
			attribute.String("status", redisCommandStatus(err)),
		))
		for _, cmd := range cmds {
			h.observe(ctx, cmd, 0)
		}
		return err
	}
}

// observe records a single command. A zero duration skips the latency histogram,
// which pipelines record once for the whole batch.
func (h *redisMetricsHook) observe(ctx context.Context, cmd redis.Cmder, d time.Duration) {
	command := strings.ToLower(cmd.Name())
	cmdErr := cmd.Err()
	status := redisCommandStatus(cmdErr)
	attrs := metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	)

	h.cmdTotal.Add(ctx, 1, attrs)
	if d > 0 {
		h.cmdLatency.Record(ctx, d.Seconds(), attrs)
	}
	if status == "error" {
		h.cmdErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("error_type", classifyRedisError(cmdErr)),
		))
	}
	if command == "publish" && cmdErr == nil {
		if intCmd, ok := cmd.(*redis.IntCmd); ok {
			h.publishReceivers.Record(ctx, intCmd.Val())
		}
	}
}

func redisCommandStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, redis.Nil):
		return "miss"
	default:
		return "error"
	}
}

func classifyRedisError(err error) string {
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case strings.Contains(errStr, "connection"):
		return "connection"
	case strings.HasPrefix(errStr, "noscript"):
		return "noscript"
	default:
		return "other"
	}
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
