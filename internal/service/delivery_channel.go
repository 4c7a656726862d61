package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/campus-notify-core/internal/observability"
)

const (
	UserNotificationTopic      = "/queue/notifications"
	BroadcastNotificationTopic = "/topic/notifications"

	ChannelRealtime = "realtime"
	ChannelEmail    = "email"
)

type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliverySkipped   DeliveryStatus = "skipped"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Outcome is the result of one delivery attempt. Skipped means there was nobody or
// nothing to deliver to and is never an error.
type Outcome struct {
	Channel     string
	RecipientID uint
	Status      DeliveryStatus
	Reason      string
	Err         error
}

type DeliveryAddress struct {
	UserID    uint
	Email     string
	Name      string
	Broadcast bool
}

type DeliveryPayload struct {
	Notification NotificationView
	Email        *EmailMessage
}

// DeliveryChannel is one way of getting a persisted notification in front of a user.
type DeliveryChannel interface {
	Name() string
	Deliver(ctx context.Context, addr DeliveryAddress, payload DeliveryPayload) Outcome
}

type RealtimeChannel struct {
	publisher RealtimePublisher
	timeout   time.Duration
}

func NewRealtimeChannel(publisher RealtimePublisher, timeout time.Duration) *RealtimeChannel {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &RealtimeChannel{publisher: publisher, timeout: timeout}
}

func (c *RealtimeChannel) Name() string { return ChannelRealtime }

func (c *RealtimeChannel) Deliver(ctx context.Context, addr DeliveryAddress, payload DeliveryPayload) (out Outcome) {
	start := time.Now()
	out = Outcome{Channel: ChannelRealtime, RecipientID: addr.UserID}
	defer func() { observability.RecordChannelDelivery(ctx, ChannelRealtime, string(out.Status), time.Since(start)) }()

	if c.publisher == nil {
		out.Status, out.Reason = DeliverySkipped, "realtime transport not configured"
		return out
	}
	body, err := json.Marshal(payload.Notification)
	if err != nil {
		out.Status, out.Reason, out.Err = DeliveryFailed, "encode payload", fmt.Errorf("%w: %w", ErrChannelFailed, err)
		return out
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	var receivers int64
	if addr.Broadcast {
		receivers, err = c.publisher.PublishBroadcast(sendCtx, BroadcastNotificationTopic, body)
	} else {
		receivers, err = c.publisher.PublishToUser(sendCtx, addr.UserID, UserNotificationTopic, body)
	}
	switch {
	case err != nil:
		out.Status, out.Reason, out.Err = DeliveryFailed, failureReason(err), fmt.Errorf("%w: %w", ErrChannelFailed, err)
	case receivers == 0:
		out.Status, out.Reason = DeliverySkipped, "no live session"
	default:
		out.Status = DeliveryDelivered
	}
	return out
}

type EmailChannel struct {
	transport EmailTransport
	timeout   time.Duration
}

func NewEmailChannel(transport EmailTransport, timeout time.Duration) *EmailChannel {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EmailChannel{transport: transport, timeout: timeout}
}

func (c *EmailChannel) Name() string { return ChannelEmail }

func (c *EmailChannel) Deliver(ctx context.Context, addr DeliveryAddress, payload DeliveryPayload) (out Outcome) {
	start := time.Now()
	out = Outcome{Channel: ChannelEmail, RecipientID: addr.UserID}
	defer func() { observability.RecordChannelDelivery(ctx, ChannelEmail, string(out.Status), time.Since(start)) }()

	switch {
	case c.transport == nil:
		out.Status, out.Reason = DeliverySkipped, "email transport not configured"
		return out
	case payload.Email == nil:
		out.Status, out.Reason = DeliverySkipped, "no email content"
		return out
	case addr.Email == "":
		out.Status, out.Reason = DeliverySkipped, "recipient has no email"
		return out
	}

	msg := *payload.Email
	msg.To, msg.ToName = addr.Email, addr.Name
	sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.transport.Send(sendCtx, msg); err != nil {
		out.Status, out.Reason, out.Err = DeliveryFailed, failureReason(err), fmt.Errorf("%w: %w", ErrChannelFailed, err)
		return out
	}
	out.Status = DeliveryDelivered
	return out
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "transport error"
}
