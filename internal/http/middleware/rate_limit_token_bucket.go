package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenBucketLimiter smooths bursts per key with x/time/rate. It is process-local,
// so it suits single-instance deployments and the auth endpoints' burst guard.
type TokenBucketLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucketEntry
	idleTTL time.Duration
	now     func() time.Time
}

func NewTokenBucketLimiter(idleTTL time.Duration) *TokenBucketLimiter {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &TokenBucketLimiter{buckets: map[string]*bucketEntry{}, idleTTL: idleTTL, now: time.Now}
}

func (l *TokenBucketLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if limit <= 0 {
		return false, window, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	entry, ok := l.buckets[key]
	if !ok {
		every := rate.Every(window / time.Duration(limit))
		entry = &bucketEntry{limiter: rate.NewLimiter(every, limit)}
		l.buckets[key] = entry
	}
	entry.lastSeen = now
	if len(l.buckets) > 1024 {
		l.evictIdle(now)
	}

	res := entry.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, window, nil
	}
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

func (l *TokenBucketLimiter) evictIdle(now time.Time) {
	for k, e := range l.buckets {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.buckets, k)
		}
	}
}
