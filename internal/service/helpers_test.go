package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sandeepkv93/campus-notify-core/internal/clock"
	"github.com/sandeepkv93/campus-notify-core/internal/domain"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
)

var svcT0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newServiceDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.OneTimeCredential{}, &domain.CredentialTicket{}, &domain.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type issuerFixture struct {
	issuer *CredentialIssuer
	repo   repository.CredentialRepository
	clock  *clock.Manual
}

func newIssuerForTest(t *testing.T, guard VerifyAttemptGuard) issuerFixture {
	t.Helper()
	repo := repository.NewCredentialRepository(newServiceDBForTest(t))
	clk := clock.NewManual(svcT0)
	issuer := NewCredentialIssuer(
		repo,
		NewCredentialRateLimiter(repo, time.Hour, 5),
		guard,
		clk,
		CredentialPolicy{TTL: 10 * time.Minute, TicketTTL: 15 * time.Minute},
		discardLogger(),
	)
	return issuerFixture{issuer: issuer, repo: repo, clock: clk}
}

func seedUser(t *testing.T, users repository.UserRepository, email, name string, role domain.UserRole) domain.User {
	t.Helper()
	u := &domain.User{Email: email, FullName: name, Role: role}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return *u
}

type recordingTransport struct {
	mu   sync.Mutex
	err  error
	sent []EmailMessage
}

func (r *recordingTransport) Name() string { return "recording" }

func (r *recordingTransport) Send(_ context.Context, msg EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingTransport) messages() []EmailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EmailMessage(nil), r.sent...)
}

type publishedMessage struct {
	userID    uint
	topic     string
	payload   []byte
	broadcast bool
}

type recordingPublisher struct {
	mu        sync.Mutex
	receivers int64
	err       error
	block     bool
	published []publishedMessage
}

func (p *recordingPublisher) PublishToUser(ctx context.Context, userID uint, topic string, payload []byte) (int64, error) {
	return p.publish(ctx, publishedMessage{userID: userID, topic: topic, payload: payload})
}

func (p *recordingPublisher) PublishBroadcast(ctx context.Context, topic string, payload []byte) (int64, error) {
	return p.publish(ctx, publishedMessage{topic: topic, payload: payload, broadcast: true})
}

func (p *recordingPublisher) publish(ctx context.Context, m publishedMessage) (int64, error) {
	if p.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	p.published = append(p.published, m)
	return p.receivers, nil
}

func (p *recordingPublisher) messages() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMessage(nil), p.published...)
}
