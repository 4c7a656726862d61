package service

import (
	"context"
	"time"

	"github.com/sandeepkv93/campus-notify-core/internal/domain"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
)

// CredentialRateLimiter bounds live codes per identity with a fixed window anchored at
// the query time. It keeps no state of its own.
type CredentialRateLimiter struct {
	repo   repository.CredentialRepository
	window time.Duration
	max    int
}

func NewCredentialRateLimiter(repo repository.CredentialRepository, window time.Duration, max int) *CredentialRateLimiter {
	if window <= 0 {
		window = time.Hour
	}
	if max <= 0 {
		max = 5
	}
	return &CredentialRateLimiter{repo: repo, window: window, max: max}
}

func (l *CredentialRateLimiter) Count(ctx context.Context, purpose domain.CredentialPurpose, identity string, asOf time.Time) (int64, error) {
	return l.repo.CountLive(ctx, identity, purpose, asOf.Add(-l.window), asOf)
}

func (l *CredentialRateLimiter) Allow(ctx context.Context, purpose domain.CredentialPurpose, identity string, asOf time.Time) (bool, error) {
	n, err := l.Count(ctx, purpose, identity, asOf)
	if err != nil {
		return false, err
	}
	return n < int64(l.max), nil
}
