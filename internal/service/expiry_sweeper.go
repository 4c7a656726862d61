package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/campus-notify-core/internal/clock"
	"github.com/sandeepkv93/campus-notify-core/internal/observability"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
)

// ExpirySweeper reclaims storage for expired credentials and tickets. Expiry is already
// enforced at read time, so its cadence never affects correctness.
type ExpirySweeper struct {
	repo     repository.CredentialRepository
	clock    clock.Clock
	interval time.Duration
	grace    time.Duration
	logger   *slog.Logger

	lastSuccess atomic.Int64
}

func NewExpirySweeper(repo repository.CredentialRepository, clk clock.Clock, interval, grace time.Duration, logger *slog.Logger) *ExpirySweeper {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if grace < 0 {
		grace = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpirySweeper{repo: repo, clock: clk, interval: interval, grace: grace, logger: logger}
}

// Sweep deletes rows whose expires_at is before now-grace, consumed or not.
func (s *ExpirySweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.grace)
	deleted, err := s.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		observability.RecordCredentialSweep(ctx, "error", 0)
		s.logger.ErrorContext(ctx, "credential sweep failed", "cutoff", cutoff, "error", err)
		return 0, err
	}
	s.lastSuccess.Store(now.UnixNano())
	observability.RecordCredentialSweep(ctx, "success", deleted)
	s.logger.InfoContext(ctx, "credential sweep completed", "cutoff", cutoff, "deleted_count", deleted)
	return deleted, nil
}

// LastSuccess is the zero time until the first sweep succeeds.
func (s *ExpirySweeper) LastSuccess() time.Time {
	n := s.lastSuccess.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func (s *ExpirySweeper) Interval() time.Duration { return s.interval }

// Run sweeps once immediately and then every interval until ctx is cancelled.
// A failed sweep is logged and retried on the next tick.
func (s *ExpirySweeper) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "credential sweeper started", "interval", s.interval.String(), "grace", s.grace.String())
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(context.WithoutCancel(ctx), "credential sweeper stopped")
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *ExpirySweeper) runOnce(ctx context.Context) {
	spanCtx, span := observability.StartSpan(ctx, "credential.sweep")
	defer span.End()
	_, _ = s.Sweep(spanCtx, s.clock.Now())
}
