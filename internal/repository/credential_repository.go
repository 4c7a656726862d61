package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-notify-core/internal/domain"
	"github.com/sandeepkv93/campus-notify-core/internal/observability"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrTicketNotFound     = errors.New("credential ticket not found")
)

// CredentialRepository owns one_time_credentials and credential_tickets. Every state
// transition is a single conditional UPDATE so concurrent replicas cannot consume twice.
type CredentialRepository interface {
	ReplacePending(ctx context.Context, c *domain.OneTimeCredential, now time.Time) (superseded int64, err error)
	FindLatestUnconsumed(ctx context.Context, identity string, purpose domain.CredentialPurpose, codeHash string) (*domain.OneTimeCredential, error)
	ConsumeAndMintTicket(ctx context.Context, id uint, t *domain.CredentialTicket, now time.Time) error
	CountLive(ctx context.Context, identity string, purpose domain.CredentialPurpose, since, asOf time.Time) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteByIdentity(ctx context.Context, identity string, purpose domain.CredentialPurpose) (int64, error)
	RedeemTicket(ctx context.Context, identity string, purpose domain.CredentialPurpose, ticketHash string, now time.Time) (*domain.CredentialTicket, error)
	Stats(ctx context.Context, now time.Time) (domain.CredentialStats, error)
}

type GormCredentialRepository struct{ db *gorm.DB }

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &GormCredentialRepository{db: db}
}

func (r *GormCredentialRepository) record(ctx context.Context, op string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrCredentialNotFound), errors.Is(err, ErrTicketNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	observability.RecordRepositoryOperation(ctx, "credential", op, outcome)
}

// ReplacePending supersedes every pending credential for the identity and purpose and
// inserts c, in one transaction.
func (r *GormCredentialRepository) ReplacePending(ctx context.Context, c *domain.OneTimeCredential, now time.Time) (int64, error) {
	var superseded int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := invalidatePending(tx, c.Identity, c.Purpose, now)
		if err != nil {
			return err
		}
		superseded = n
		return tx.Create(c).Error
	})
	r.record(ctx, "replace_pending", err)
	if err != nil {
		return 0, err
	}
	return superseded, nil
}

func invalidatePending(db *gorm.DB, identity string, purpose domain.CredentialPurpose, now time.Time) (int64, error) {
	res := db.Model(&domain.OneTimeCredential{}).
		Where("identity = ? AND purpose = ? AND consumed_at IS NULL AND expires_at > ?", identity, purpose, now).
		Updates(map[string]any{"consumed_at": now, "superseded": true, "updated_at": now})
	return res.RowsAffected, res.Error
}

// FindLatestUnconsumed ignores expiry so the caller can tell Expired from NotFound.
func (r *GormCredentialRepository) FindLatestUnconsumed(ctx context.Context, identity string, purpose domain.CredentialPurpose, codeHash string) (*domain.OneTimeCredential, error) {
	var c domain.OneTimeCredential
	err := r.db.WithContext(ctx).
		Where("identity = ? AND purpose = ? AND code_hash = ? AND consumed_at IS NULL", identity, purpose, codeHash).
		Order("created_at desc, id desc").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrCredentialNotFound
	}
	r.record(ctx, "find_latest_unconsumed", err)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ConsumeAndMintTicket consumes a pending credential and inserts its ticket in one
// transaction. It returns ErrCredentialNotFound when the credential was already
// consumed or has expired; a failed insert leaves the credential pending.
func (r *GormCredentialRepository) ConsumeAndMintTicket(ctx context.Context, id uint, t *domain.CredentialTicket, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.OneTimeCredential{}).
			Where("id = ? AND consumed_at IS NULL AND expires_at > ?", id, now).
			Updates(map[string]any{"consumed_at": now, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCredentialNotFound
		}
		t.CredentialID = id
		return tx.Create(t).Error
	})
	r.record(ctx, "consume_and_mint", err)
	return err
}

// CountLive counts credentials created in [since, asOf] that are still inside their
// validity window and were not consumed by a successful verify. Superseded codes
// keep counting until they expire.
func (r *GormCredentialRepository) CountLive(ctx context.Context, identity string, purpose domain.CredentialPurpose, since, asOf time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.OneTimeCredential{}).
		Where("identity = ? AND purpose = ? AND created_at >= ? AND created_at <= ? AND expires_at > ?", identity, purpose, since, asOf, asOf).
		Where("(consumed_at IS NULL OR superseded = ?)", true).
		Count(&n).Error
	r.record(ctx, "count_live", err)
	return n, err
}

func (r *GormCredentialRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("expires_at < ?", cutoff).Delete(&domain.OneTimeCredential{})
		if res.Error != nil {
			return res.Error
		}
		deleted += res.RowsAffected
		res = tx.Where("expires_at < ?", cutoff).Delete(&domain.CredentialTicket{})
		if res.Error != nil {
			return res.Error
		}
		deleted += res.RowsAffected
		return nil
	})
	r.record(ctx, "delete_expired", err)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (r *GormCredentialRepository) DeleteByIdentity(ctx context.Context, identity string, purpose domain.CredentialPurpose) (int64, error) {
	res := r.db.WithContext(ctx).Where("identity = ? AND purpose = ?", identity, purpose).Delete(&domain.OneTimeCredential{})
	r.record(ctx, "delete_by_identity", res.Error)
	return res.RowsAffected, res.Error
}

// RedeemTicket marks the ticket redeemed if it belongs to identity/purpose, is unexpired
// and unredeemed. A second redemption returns ErrTicketNotFound.
func (r *GormCredentialRepository) RedeemTicket(ctx context.Context, identity string, purpose domain.CredentialPurpose, ticketHash string, now time.Time) (*domain.CredentialTicket, error) {
	var t domain.CredentialTicket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.CredentialTicket{}).
			Where("ticket_hash = ? AND identity = ? AND purpose = ? AND redeemed_at IS NULL AND expires_at > ?", ticketHash, identity, purpose, now).
			Update("redeemed_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTicketNotFound
		}
		return tx.Where("ticket_hash = ?", ticketHash).First(&t).Error
	})
	r.record(ctx, "redeem_ticket", err)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormCredentialRepository) Stats(ctx context.Context, now time.Time) (domain.CredentialStats, error) {
	var s domain.CredentialStats
	db := r.db.WithContext(ctx)
	counts := []struct {
		dst   *int64
		model any
		where string
		args  []any
	}{
		{&s.Total, &domain.OneTimeCredential{}, "", nil},
		{&s.Pending, &domain.OneTimeCredential{}, "consumed_at IS NULL AND expires_at > ?", []any{now}},
		{&s.Consumed, &domain.OneTimeCredential{}, "consumed_at IS NOT NULL", nil},
		{&s.Expired, &domain.OneTimeCredential{}, "consumed_at IS NULL AND expires_at <= ?", []any{now}},
		{&s.Tickets, &domain.CredentialTicket{}, "", nil},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			r.record(ctx, "stats", err)
			return domain.CredentialStats{}, err
		}
	}
	r.record(ctx, "stats", nil)
	return s, nil
}
