package service

import (
	"context"

	"github.com/sandeepkv93/campus-notify-core/internal/domain"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
)

type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// EmailTransport hands a message to an email provider. A nil error means the provider
// accepted it.
type EmailTransport interface {
	Name() string
	Send(ctx context.Context, msg EmailMessage) error
}

// RealtimePublisher pushes a payload to live sessions and reports how many received it.
type RealtimePublisher interface {
	PublishToUser(ctx context.Context, userID uint, topic string, payload []byte) (int64, error)
	PublishBroadcast(ctx context.Context, topic string, payload []byte) (int64, error)
}

// CredentialFlows is the HTTP-facing surface of AccountRecoveryService.
type CredentialFlows interface {
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyPasswordReset(ctx context.Context, email, code string) (string, error)
	CompletePasswordReset(ctx context.Context, email, ticket, newPassword string) error
	RequestSignupCode(ctx context.Context, email string) error
	VerifySignupCode(ctx context.Context, email, code string) (string, error)
	ConsumeSignupTicket(ctx context.Context, email, ticket, fullName, password string) (*domain.User, error)
}

// NotificationInbox is the HTTP-facing read side of NotificationDispatcher.
type NotificationInbox interface {
	ListForUser(ctx context.Context, userID uint, req repository.PageRequest) (repository.PageResult[NotificationView], error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, id uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID, id uint) error
	DeleteAll(ctx context.Context, userID uint) (int64, error)
}

// UserDirectory is what notification fan-out needs from the user store.
type UserDirectory interface {
	ListAdmins(ctx context.Context) ([]domain.User, error)
	FindNamesByIDs(ctx context.Context, ids []uint) (map[uint]string, error)
}
