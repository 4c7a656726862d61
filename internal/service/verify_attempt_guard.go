package service

import (
	"context"
	"strings"
	"time"

	"github.com/sandeepkv93/campus-notify-core/internal/domain"
)

type VerifyAttemptPolicy struct {
	FreeAttempts int
	BaseDelay    time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	ResetWindow  time.Duration
}

// VerifyAttemptGuard throttles repeated failed code verifications per identity. State
// must live outside the process so every replica sees the same counters.
type VerifyAttemptGuard interface {
	Check(ctx context.Context, purpose domain.CredentialPurpose, identity string) (time.Duration, error)
	RegisterFailure(ctx context.Context, purpose domain.CredentialPurpose, identity string) (time.Duration, error)
	Reset(ctx context.Context, purpose domain.CredentialPurpose, identity string) error
}

type NoopVerifyAttemptGuard struct{}

func NewNoopVerifyAttemptGuard() *NoopVerifyAttemptGuard {
	return &NoopVerifyAttemptGuard{}
}

func (g *NoopVerifyAttemptGuard) Check(context.Context, domain.CredentialPurpose, string) (time.Duration, error) {
	return 0, nil
}

func (g *NoopVerifyAttemptGuard) RegisterFailure(context.Context, domain.CredentialPurpose, string) (time.Duration, error) {
	return 0, nil
}

func (g *NoopVerifyAttemptGuard) Reset(context.Context, domain.CredentialPurpose, string) error {
	return nil
}

func normalizeVerifyAttemptPolicy(policy VerifyAttemptPolicy) VerifyAttemptPolicy {
	if policy.FreeAttempts < 0 {
		policy.FreeAttempts = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 30 * time.Second
	}
	if policy.Multiplier < 1 {
		policy.Multiplier = 2
	}
	if policy.MaxDelay < policy.BaseDelay {
		policy.MaxDelay = 15 * time.Minute
	}
	if policy.ResetWindow <= 0 {
		policy.ResetWindow = time.Hour
	}
	return policy
}

func normalizeGuardIdentity(identity string) string {
	v := strings.TrimSpace(strings.ToLower(identity))
	if v == "" {
		return "anonymous"
	}
	return v
}
