package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sandeepkv93/campus-notify-core/internal/clock"
	"github.com/sandeepkv93/campus-notify-core/internal/domain"
	"github.com/sandeepkv93/campus-notify-core/internal/observability"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
	"github.com/sandeepkv93/campus-notify-core/internal/security"
)

// AccountRecoveryService drives the password reset and signup verification flows on top
// of CredentialIssuer. It never tells a caller whether an email has an account during reset.
type AccountRecoveryService struct {
	issuer     *CredentialIssuer
	users      repository.UserRepository
	email      DeliveryChannel
	renderer   *EmailRenderer
	dispatcher *NotificationDispatcher
	clock      clock.Clock
	logger     *slog.Logger
}

func NewAccountRecoveryService(
	issuer *CredentialIssuer,
	users repository.UserRepository,
	email DeliveryChannel,
	renderer *EmailRenderer,
	dispatcher *NotificationDispatcher,
	clk clock.Clock,
	logger *slog.Logger,
) *AccountRecoveryService {
	if renderer == nil {
		renderer = NewEmailRenderer("", "")
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountRecoveryService{
		issuer:     issuer,
		users:      users,
		email:      email,
		renderer:   renderer,
		dispatcher: dispatcher,
		clock:      clk,
		logger:     logger,
	}
}

func (s *AccountRecoveryService) RequestPasswordReset(ctx context.Context, email string) error {
	identity := NormalizeIdentity(email)
	if identity == "" {
		return ErrInvalidIdentity
	}
	user, err := s.users.FindByEmail(ctx, identity)
	known := err == nil
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("%w: find user: %w", ErrStoreUnavailable, err)
	}

	// Unknown identities get a stored, never-sent code so they draw on the same
	// rate budget and hit ErrRateLimited on the same request as real accounts.
	code, err := s.issuer.Issue(ctx, domain.CredentialPurposePasswordReset, identity)
	if err != nil {
		return err
	}
	if !known {
		s.logger.InfoContext(ctx, "password reset requested for unknown identity", "identity", observability.MaskEmail(identity))
		return nil
	}
	s.sendCode(ctx, domain.CredentialPurposePasswordReset, user.ID, identity, user.FullName, code)
	return nil
}

func (s *AccountRecoveryService) VerifyPasswordReset(ctx context.Context, email, code string) (string, error) {
	return s.issuer.Verify(ctx, domain.CredentialPurposePasswordReset, email, code)
}

// CompletePasswordReset checks the password policy before redeeming, so a rejected
// password does not burn the ticket.
func (s *AccountRecoveryService) CompletePasswordReset(ctx context.Context, email, ticket, newPassword string) error {
	if err := security.CheckPasswordPolicy(newPassword); err != nil {
		return err
	}
	identity := NormalizeIdentity(email)
	if _, err := s.issuer.RedeemTicket(ctx, domain.CredentialPurposePasswordReset, identity, ticket); err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, identity)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrTicketInvalid
		}
		return fmt.Errorf("%w: find user: %w", ErrStoreUnavailable, err)
	}
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, s.clock.Now()); err != nil {
		return fmt.Errorf("%w: update password: %w", ErrStoreUnavailable, err)
	}
	if err := s.issuer.Discard(ctx, domain.CredentialPurposePasswordReset, identity); err != nil {
		s.logger.WarnContext(ctx, "discard reset credentials failed", "user_id", user.ID, "error", err)
	}
	s.logger.InfoContext(ctx, "password reset completed", "user_id", user.ID)
	return nil
}

func (s *AccountRecoveryService) RequestSignupCode(ctx context.Context, email string) error {
	identity := NormalizeIdentity(email)
	if identity == "" {
		return ErrInvalidIdentity
	}
	if err := s.ensureEmailFree(ctx, identity); err != nil {
		return err
	}
	code, err := s.issuer.Issue(ctx, domain.CredentialPurposeSignupVerify, identity)
	if err != nil {
		return err
	}
	s.sendCode(ctx, domain.CredentialPurposeSignupVerify, 0, identity, "", code)
	return nil
}

func (s *AccountRecoveryService) VerifySignupCode(ctx context.Context, email, code string) (string, error) {
	return s.issuer.Verify(ctx, domain.CredentialPurposeSignupVerify, email, code)
}

// ConsumeSignupTicket creates the verified account the ticket was minted for and sends
// the welcome notification.
func (s *AccountRecoveryService) ConsumeSignupTicket(ctx context.Context, email, ticket, fullName, password string) (*domain.User, error) {
	if err := security.CheckPasswordPolicy(password); err != nil {
		return nil, err
	}
	identity := NormalizeIdentity(email)
	if err := s.ensureEmailFree(ctx, identity); err != nil {
		return nil, err
	}
	if _, err := s.issuer.RedeemTicket(ctx, domain.CredentialPurposeSignupVerify, identity, ticket); err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.clock.Now()
	user := &domain.User{
		Email:         identity,
		FullName:      fullName,
		Role:          domain.UserRoleStudent,
		PasswordHash:  hash,
		EmailVerified: true,
		PasswordSetAt: &now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: create user: %w", ErrStoreUnavailable, err)
	}
	if err := s.issuer.Discard(ctx, domain.CredentialPurposeSignupVerify, identity); err != nil {
		s.logger.WarnContext(ctx, "discard signup credentials failed", "user_id", user.ID, "error", err)
	}
	if s.dispatcher != nil {
		if _, err := s.dispatcher.NotifyWelcome(ctx, *user); err != nil {
			s.logger.WarnContext(ctx, "welcome notification failed", "user_id", user.ID, "error", err)
		}
	}
	s.logger.InfoContext(ctx, "signup completed", "user_id", user.ID)
	return user, nil
}

func (s *AccountRecoveryService) ensureEmailFree(ctx context.Context, identity string) error {
	_, err := s.users.FindByEmail(ctx, identity)
	switch {
	case err == nil:
		return ErrIdentityTaken
	case errors.Is(err, repository.ErrUserNotFound):
		return nil
	default:
		return fmt.Errorf("%w: find user: %w", ErrStoreUnavailable, err)
	}
}

// sendCode never fails the request: the code is already persisted and the user can ask again.
func (s *AccountRecoveryService) sendCode(ctx context.Context, purpose domain.CredentialPurpose, userID uint, identity, name, code string) {
	if s.email == nil {
		return
	}
	msg, err := s.renderer.CredentialCode(purpose, code, s.issuer.policy.TTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "render credential email failed", "purpose", purpose, "error", err)
		return
	}
	out := s.email.Deliver(ctx, DeliveryAddress{UserID: userID, Email: identity, Name: name}, DeliveryPayload{Email: &msg})
	if out.Status != DeliveryDelivered {
		s.logger.WarnContext(ctx, "credential email not delivered",
			"purpose", purpose,
			"identity", observability.MaskEmail(identity),
			"status", out.Status,
			"reason", out.Reason,
			"error", out.Err,
		)
	}
}
