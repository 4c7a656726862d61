package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sandeepkv93/campus-notify-core/internal/clock"
	"github.com/sandeepkv93/campus-notify-core/internal/domain"
	"github.com/sandeepkv93/campus-notify-core/internal/observability"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
	"github.com/sandeepkv93/campus-notify-core/internal/security"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

type CredentialPolicy struct {
	TTL       time.Duration
	TicketTTL time.Duration
}

// CredentialIssuer issues and verifies one-time codes. Single use is enforced by the
// repository's conditional updates, never by locks here.
type CredentialIssuer struct {
	repo    repository.CredentialRepository
	limiter *CredentialRateLimiter
	guard   VerifyAttemptGuard
	clock   clock.Clock
	policy  CredentialPolicy
	random  io.Reader
	logger  *slog.Logger
}

func NewCredentialIssuer(
	repo repository.CredentialRepository,
	limiter *CredentialRateLimiter,
	guard VerifyAttemptGuard,
	clk clock.Clock,
	policy CredentialPolicy,
	logger *slog.Logger,
) *CredentialIssuer {
	if guard == nil {
		guard = NewNoopVerifyAttemptGuard()
	}
	if clk == nil {
		clk = clock.New()
	}
	if policy.TTL <= 0 {
		policy.TTL = 10 * time.Minute
	}
	if policy.TicketTTL <= 0 {
		policy.TicketTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialIssuer{
		repo:    repo,
		limiter: limiter,
		guard:   guard,
		clock:   clk,
		policy:  policy,
		random:  rand.Reader,
		logger:  logger,
	}
}

func NormalizeIdentity(identity string) string {
	return strings.TrimSpace(strings.ToLower(identity))
}

// Issue supersedes any pending code for (purpose, identity) and returns a fresh one.
// The caller delivers it out of band.
func (s *CredentialIssuer) Issue(ctx context.Context, purpose domain.CredentialPurpose, identity string) (code string, err error) {
	outcome := "error"
	defer func() { observability.RecordCredentialIssue(ctx, string(purpose), outcome) }()

	if !purpose.Valid() {
		return "", ErrInvalidPurpose
	}
	identity = NormalizeIdentity(identity)
	if identity == "" {
		return "", ErrInvalidIdentity
	}

	now := s.clock.Now()
	allowed, err := s.limiter.Allow(ctx, purpose, identity, now)
	if err != nil {
		return "", fmt.Errorf("%w: count live credentials: %w", ErrStoreUnavailable, err)
	}
	if !allowed {
		outcome = "rate_limited"
		s.logger.WarnContext(ctx, "credential issue rate limited",
			"purpose", purpose,
			"identity", observability.MaskEmail(identity),
		)
		return "", ErrRateLimited
	}

	code, err = security.GenerateNumericCode(s.random)
	if err != nil {
		return "", err
	}
	cred := &domain.OneTimeCredential{
		Identity:  identity,
		Purpose:   purpose,
		CodeHash:  security.HashSecret(code),
		ExpiresAt: now.Add(s.policy.TTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	superseded, err := s.repo.ReplacePending(ctx, cred, now)
	if err != nil {
		return "", fmt.Errorf("%w: persist credential: %w", ErrStoreUnavailable, err)
	}

	outcome = "issued"
	s.logger.InfoContext(ctx, "credential issued",
		"purpose", purpose,
		"identity", observability.MaskEmail(identity),
		"credential_id", cred.ID,
		"superseded", superseded,
		"expires_at", cred.ExpiresAt,
	)
	return code, nil
}

// Verify consumes a pending code and returns a one-time ticket for the follow-up action.
// Wrong and already-used codes are both ErrCredentialNotFound.
func (s *CredentialIssuer) Verify(ctx context.Context, purpose domain.CredentialPurpose, identity, code string) (ticket string, err error) {
	outcome := "error"
	defer func() { observability.RecordCredentialVerify(ctx, string(purpose), outcome) }()

	if !purpose.Valid() {
		return "", ErrInvalidPurpose
	}
	identity = NormalizeIdentity(identity)
	if identity == "" {
		return "", ErrInvalidIdentity
	}

	if wait := s.checkGuard(ctx, purpose, identity); wait > 0 {
		outcome = "throttled"
		return "", ErrRateLimited
	}

	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		outcome = "not_found"
		s.registerFailure(ctx, purpose, identity)
		return "", ErrCredentialNotFound
	}

	now := s.clock.Now()
	cred, err := s.repo.FindLatestUnconsumed(ctx, identity, purpose, security.HashSecret(code))
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			outcome = "not_found"
			s.registerFailure(ctx, purpose, identity)
			return "", ErrCredentialNotFound
		}
		return "", fmt.Errorf("%w: find credential: %w", ErrStoreUnavailable, err)
	}
	if cred.Status(now) == domain.CredentialStatusExpired {
		outcome = "expired"
		s.registerFailure(ctx, purpose, identity)
		return "", ErrCredentialExpired
	}

	ticket, err = security.GenerateOpaqueToken(s.random)
	if err != nil {
		return "", err
	}
	t := &domain.CredentialTicket{
		CredentialID: cred.ID,
		Identity:     identity,
		Purpose:      purpose,
		TicketHash:   security.HashSecret(ticket),
		ExpiresAt:    now.Add(s.policy.TicketTTL),
		CreatedAt:    now,
	}
	if err := s.repo.ConsumeAndMintTicket(ctx, cred.ID, t, now); err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			outcome = "not_found"
			return "", ErrCredentialNotFound
		}
		return "", fmt.Errorf("%w: consume credential and mint ticket: %w", ErrStoreUnavailable, err)
	}
	observability.RecordCredentialTicket(ctx, string(purpose), "minted")

	if err := s.guard.Reset(ctx, purpose, identity); err != nil {
		s.logger.WarnContext(ctx, "verify guard reset failed", "purpose", purpose, "error", err)
		observability.RecordVerifyGuardEvent(ctx, "reset", "error")
	}

	outcome = "consumed"
	s.logger.InfoContext(ctx, "credential verified",
		"purpose", purpose,
		"identity", observability.MaskEmail(identity),
		"credential_id", cred.ID,
	)
	return ticket, nil
}

// RedeemTicket accepts a ticket exactly once for the identity and purpose it was minted for.
func (s *CredentialIssuer) RedeemTicket(ctx context.Context, purpose domain.CredentialPurpose, identity, ticket string) (*domain.CredentialTicket, error) {
	identity = NormalizeIdentity(identity)
	ticket = strings.TrimSpace(ticket)
	if identity == "" || ticket == "" {
		observability.RecordCredentialTicket(ctx, string(purpose), "invalid")
		return nil, ErrTicketInvalid
	}
	t, err := s.repo.RedeemTicket(ctx, identity, purpose, security.HashSecret(ticket), s.clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			observability.RecordCredentialTicket(ctx, string(purpose), "invalid")
			return nil, ErrTicketInvalid
		}
		observability.RecordCredentialTicket(ctx, string(purpose), "error")
		return nil, fmt.Errorf("%w: redeem ticket: %w", ErrStoreUnavailable, err)
	}
	observability.RecordCredentialTicket(ctx, string(purpose), "redeemed")
	return t, nil
}

// Discard removes every credential of the identity for a purpose once the flow completes.
func (s *CredentialIssuer) Discard(ctx context.Context, purpose domain.CredentialPurpose, identity string) error {
	_, err := s.repo.DeleteByIdentity(ctx, NormalizeIdentity(identity), purpose)
	return err
}

// Guard failures fail open: throttling is an anti-abuse layer, the code check still applies.
func (s *CredentialIssuer) checkGuard(ctx context.Context, purpose domain.CredentialPurpose, identity string) time.Duration {
	wait, err := s.guard.Check(ctx, purpose, identity)
	if err != nil {
		s.logger.WarnContext(ctx, "verify guard check failed", "purpose", purpose, "error", err)
		observability.RecordVerifyGuardEvent(ctx, "check", "error")
		return 0
	}
	if wait > 0 {
		observability.RecordVerifyGuardEvent(ctx, "check", "blocked")
		observability.RecordVerifyGuardCooldown(ctx, "check", wait)
		return wait
	}
	observability.RecordVerifyGuardEvent(ctx, "check", "allowed")
	return 0
}

func (s *CredentialIssuer) registerFailure(ctx context.Context, purpose domain.CredentialPurpose, identity string) {
	wait, err := s.guard.RegisterFailure(ctx, purpose, identity)
	if err != nil {
		s.logger.WarnContext(ctx, "verify guard register failed", "purpose", purpose, "error", err)
		observability.RecordVerifyGuardEvent(ctx, "register_failure", "error")
		return
	}
	observability.RecordVerifyGuardEvent(ctx, "register_failure", "recorded")
	if wait > 0 {
		observability.RecordVerifyGuardCooldown(ctx, "register_failure", wait)
	}
}
