package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-notify-core/internal/domain"
)

var repoT0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newCredential(identity string, purpose domain.CredentialPurpose, hash string, createdAt time.Time) *domain.OneTimeCredential {
	return &domain.OneTimeCredential{
		Identity:  identity,
		Purpose:   purpose,
		CodeHash:  hash,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		ExpiresAt: createdAt.Add(10 * time.Minute),
	}
}

func newTicket(c *domain.OneTimeCredential, hash string, createdAt time.Time) *domain.CredentialTicket {
	return &domain.CredentialTicket{
		CredentialID: c.ID,
		Identity:     c.Identity,
		Purpose:      c.Purpose,
		TicketHash:   hash,
		ExpiresAt:    createdAt.Add(15 * time.Minute),
		CreatedAt:    createdAt,
	}
}

// seedCredentials inserts rows directly; issuing always goes through ReplacePending.
func seedCredentials(t *testing.T, db *gorm.DB, cs ...*domain.OneTimeCredential) {
	t.Helper()
	for _, c := range cs {
		if err := db.Create(c).Error; err != nil {
			t.Fatalf("seed credential: %v", err)
		}
	}
}

func TestCredentialRepositoryReplacePendingSupersedesOlderCodes(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository(newRepositoryDBForTest(t))
	const id = "a@x.com"
	reset := domain.CredentialPurposePasswordReset

	first := newCredential(id, reset, "h1", repoT0)
	if _, err := repo.ReplacePending(ctx, first, repoT0); err != nil {
		t.Fatalf("issue first: %v", err)
	}
	signup := newCredential(id, domain.CredentialPurposeSignupVerify, "s1", repoT0)
	if _, err := repo.ReplacePending(ctx, signup, repoT0); err != nil {
		t.Fatalf("issue signup: %v", err)
	}

	second := newCredential(id, reset, "h2", repoT0.Add(time.Minute))
	superseded, err := repo.ReplacePending(ctx, second, repoT0.Add(time.Minute))
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}
	if superseded != 1 {
		t.Fatalf("expected 1 superseded row, got %d", superseded)
	}

	if _, err := repo.FindLatestUnconsumed(ctx, id, reset, "h1"); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("expected superseded code to be gone, got %v", err)
	}
	if _, err := repo.FindLatestUnconsumed(ctx, id, domain.CredentialPurposeSignupVerify, "s1"); err != nil {
		t.Fatalf("signup code must survive a reset issue: %v", err)
	}

	n, err := repo.CountLive(ctx, id, reset, repoT0.Add(-time.Hour), repoT0.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("count live: %v", err)
	}
	if n != 2 {
		t.Fatalf("superseded codes still count toward the limit, got %d want 2", n)
	}
}

func TestCredentialRepositoryConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	db := newRepositoryDBForTest(t)
	repo := NewCredentialRepository(db)
	c := newCredential("a@x.com", domain.CredentialPurposePasswordReset, "h", repoT0)
	seedCredentials(t, db, c)

	if err := repo.ConsumeAndMintTicket(ctx, c.ID, newTicket(c, "t1", repoT0), repoT0.Add(time.Minute)); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := repo.ConsumeAndMintTicket(ctx, c.ID, newTicket(c, "t2", repoT0), repoT0.Add(2*time.Minute)); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("second consume: expected ErrCredentialNotFound, got %v", err)
	}
	if _, err := repo.RedeemTicket(ctx, c.Identity, c.Purpose, "t2", repoT0.Add(2*time.Minute)); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("a losing consume must not leave a ticket behind, got %v", err)
	}
	if _, err := repo.RedeemTicket(ctx, c.Identity, c.Purpose, "t1", repoT0.Add(2*time.Minute)); err != nil {
		t.Fatalf("winning ticket must be redeemable: %v", err)
	}

	n, err := repo.CountLive(ctx, c.Identity, c.Purpose, repoT0.Add(-time.Hour), repoT0.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("count live: %v", err)
	}
	if n != 0 {
		t.Fatalf("verified code must not count toward the limit, got %d", n)
	}
}

func TestCredentialRepositoryExpiredCodeIsFoundButNotConsumable(t *testing.T) {
	ctx := context.Background()
	db := newRepositoryDBForTest(t)
	repo := NewCredentialRepository(db)
	c := newCredential("a@x.com", domain.CredentialPurposePasswordReset, "h", repoT0)
	seedCredentials(t, db, c)
	late := repoT0.Add(11 * time.Minute)

	found, err := repo.FindLatestUnconsumed(ctx, c.Identity, c.Purpose, "h")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Status(late) != domain.CredentialStatusExpired {
		t.Fatalf("expected expired status, got %s", found.Status(late))
	}
	if err := repo.ConsumeAndMintTicket(ctx, c.ID, newTicket(c, "t", late), late); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("expected expired consume to fail, got %v", err)
	}
	n, err := repo.CountLive(ctx, c.Identity, c.Purpose, late.Add(-time.Hour), late)
	if err != nil {
		t.Fatalf("count live: %v", err)
	}
	if n != 0 {
		t.Fatalf("expired code must not count, got %d", n)
	}
}

func TestCredentialRepositoryFailedTicketInsertLeavesCodePending(t *testing.T) {
	ctx := context.Background()
	db := newRepositoryDBForTest(t)
	repo := NewCredentialRepository(db)
	c := newCredential("a@x.com", domain.CredentialPurposePasswordReset, "h", repoT0)
	seedCredentials(t, db, c)
	if err := db.Create(newTicket(c, "taken", repoT0)).Error; err != nil {
		t.Fatalf("seed ticket: %v", err)
	}

	err := repo.ConsumeAndMintTicket(ctx, c.ID, newTicket(c, "taken", repoT0), repoT0.Add(time.Minute))
	if err == nil || errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("expected the duplicate ticket insert to fail, got %v", err)
	}

	found, err := repo.FindLatestUnconsumed(ctx, c.Identity, c.Purpose, "h")
	if err != nil {
		t.Fatalf("code must still be pending after a rolled back mint: %v", err)
	}
	if found.ConsumedAt != nil {
		t.Fatalf("consumed_at must be rolled back, got %v", found.ConsumedAt)
	}
	if err := repo.ConsumeAndMintTicket(ctx, c.ID, newTicket(c, "fresh", repoT0), repoT0.Add(2*time.Minute)); err != nil {
		t.Fatalf("retry after rollback: %v", err)
	}
}

func TestCredentialRepositoryDeleteExpiredBeforeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newRepositoryDBForTest(t)
	repo := NewCredentialRepository(db)

	old := newCredential("a@x.com", domain.CredentialPurposePasswordReset, "old", repoT0)
	fresh := newCredential("a@x.com", domain.CredentialPurposePasswordReset, "fresh", repoT0.Add(30*time.Minute))
	seedCredentials(t, db, old, fresh)
	if err := repo.ConsumeAndMintTicket(ctx, old.ID, newTicket(old, "t-old", repoT0), repoT0); err != nil {
		t.Fatalf("mint ticket: %v", err)
	}

	now := repoT0.Add(20 * time.Minute)
	deleted, err := repo.DeleteExpiredBefore(ctx, now)
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected credential and ticket deleted, got %d", deleted)
	}
	deleted, err = repo.DeleteExpiredBefore(ctx, now)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("second sweep with same now must delete nothing, got %d", deleted)
	}
	if _, err := repo.FindLatestUnconsumed(ctx, fresh.Identity, fresh.Purpose, "fresh"); err != nil {
		t.Fatalf("fresh credential must survive: %v", err)
	}
}

func TestCredentialRepositoryRedeemTicketOnce(t *testing.T) {
	ctx := context.Background()
	db := newRepositoryDBForTest(t)
	repo := NewCredentialRepository(db)
	c := newCredential("a@x.com", domain.CredentialPurposePasswordReset, "h", repoT0)
	seedCredentials(t, db, c)
	ticket := newTicket(c, "t1", repoT0)
	if err := repo.ConsumeAndMintTicket(ctx, c.ID, ticket, repoT0); err != nil {
		t.Fatalf("mint ticket: %v", err)
	}

	if _, err := repo.RedeemTicket(ctx, "b@x.com", ticket.Purpose, "t1", repoT0); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("foreign identity must not redeem, got %v", err)
	}
	if _, err := repo.RedeemTicket(ctx, ticket.Identity, domain.CredentialPurposeSignupVerify, "t1", repoT0); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("wrong purpose must not redeem, got %v", err)
	}
	got, err := repo.RedeemTicket(ctx, ticket.Identity, ticket.Purpose, "t1", repoT0.Add(time.Minute))
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if got.RedeemedAt == nil || got.CredentialID != c.ID {
		t.Fatalf("unexpected redeemed ticket: %+v", got)
	}
	if _, err := repo.RedeemTicket(ctx, ticket.Identity, ticket.Purpose, "t1", repoT0.Add(2*time.Minute)); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("second redeem: expected ErrTicketNotFound, got %v", err)
	}
}

func TestCredentialRepositoryStats(t *testing.T) {
	ctx := context.Background()
	db := newRepositoryDBForTest(t)
	repo := NewCredentialRepository(db)

	pending := newCredential("a@x.com", domain.CredentialPurposePasswordReset, "p", repoT0)
	consumed := newCredential("b@x.com", domain.CredentialPurposePasswordReset, "c", repoT0)
	expired := newCredential("c@x.com", domain.CredentialPurposeSignupVerify, "e", repoT0.Add(-time.Hour))
	seedCredentials(t, db, pending, consumed, expired)
	if err := repo.ConsumeAndMintTicket(ctx, consumed.ID, newTicket(consumed, "tc", repoT0), repoT0); err != nil {
		t.Fatalf("consume: %v", err)
	}

	stats, err := repo.Stats(ctx, repoT0.Add(time.Second))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := domain.CredentialStats{Total: 3, Pending: 1, Consumed: 1, Expired: 1, Tickets: 1}
	if stats != want {
		t.Fatalf("stats mismatch: got %+v want %+v", stats, want)
	}

	if n, err := repo.DeleteByIdentity(ctx, "a@x.com", domain.CredentialPurposePasswordReset); err != nil || n != 1 {
		t.Fatalf("delete by identity: n=%d err=%v", n, err)
	}
}
