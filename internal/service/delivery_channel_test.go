package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/campus-notify-core/internal/domain"
)

func testView() NotificationView {
	return NotificationView{
		Notification: domain.Notification{ID: 11, RecipientID: 3, Title: "New Comment on Your Post", Kind: domain.NotificationKindPostComment},
		ActorName:    "Ada",
	}
}

func TestRealtimeChannelOutcomes(t *testing.T) {
	ctx := context.Background()
	addr := DeliveryAddress{UserID: 3}

	t.Run("no transport", func(t *testing.T) {
		out := NewRealtimeChannel(nil, 0).Deliver(ctx, addr, DeliveryPayload{Notification: testView()})
		if out.Status != DeliverySkipped {
			t.Fatalf("expected skipped, got %+v", out)
		}
	})

	t.Run("no live session", func(t *testing.T) {
		pub := &recordingPublisher{receivers: 0}
		out := NewRealtimeChannel(pub, 0).Deliver(ctx, addr, DeliveryPayload{Notification: testView()})
		if out.Status != DeliverySkipped || out.Err != nil {
			t.Fatalf("expected skipped without error, got %+v", out)
		}
	})

	t.Run("delivered to user queue", func(t *testing.T) {
		pub := &recordingPublisher{receivers: 2}
		out := NewRealtimeChannel(pub, 0).Deliver(ctx, addr, DeliveryPayload{Notification: testView()})
		if out.Status != DeliveryDelivered || out.Channel != ChannelRealtime || out.RecipientID != 3 {
			t.Fatalf("unexpected outcome %+v", out)
		}
		msgs := pub.messages()
		if len(msgs) != 1 || msgs[0].userID != 3 || msgs[0].topic != UserNotificationTopic || msgs[0].broadcast {
			t.Fatalf("unexpected publish %+v", msgs)
		}
		var decoded map[string]any
		if err := json.Unmarshal(msgs[0].payload, &decoded); err != nil {
			t.Fatalf("payload is not json: %v", err)
		}
		if decoded["actor_name"] != "Ada" || decoded["kind"] != "post_comment" {
			t.Fatalf("unexpected payload %v", decoded)
		}
	})

	t.Run("broadcast topic", func(t *testing.T) {
		pub := &recordingPublisher{receivers: 1}
		out := NewRealtimeChannel(pub, 0).Deliver(ctx, DeliveryAddress{Broadcast: true}, DeliveryPayload{Notification: testView()})
		if out.Status != DeliveryDelivered {
			t.Fatalf("unexpected outcome %+v", out)
		}
		if msgs := pub.messages(); len(msgs) != 1 || !msgs[0].broadcast || msgs[0].topic != BroadcastNotificationTopic {
			t.Fatalf("unexpected publish %+v", msgs)
		}
	})

	t.Run("transport error", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("connection refused")}
		out := NewRealtimeChannel(pub, 0).Deliver(ctx, addr, DeliveryPayload{Notification: testView()})
		if out.Status != DeliveryFailed || !errors.Is(out.Err, ErrChannelFailed) || out.Reason != "transport error" {
			t.Fatalf("unexpected outcome %+v", out)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		pub := &recordingPublisher{block: true}
		out := NewRealtimeChannel(pub, 20*time.Millisecond).Deliver(ctx, addr, DeliveryPayload{Notification: testView()})
		if out.Status != DeliveryFailed || out.Reason != "timeout" {
			t.Fatalf("expected timeout failure, got %+v", out)
		}
	})
}

func TestEmailChannelOutcomes(t *testing.T) {
	ctx := context.Background()
	msg := &EmailMessage{Subject: "s", HTML: "<p>h</p>", Text: "h"}
	addr := DeliveryAddress{UserID: 4, Email: "bob@campus.edu", Name: "Bob"}

	if out := NewEmailChannel(nil, 0).Deliver(ctx, addr, DeliveryPayload{Email: msg}); out.Status != DeliverySkipped {
		t.Fatalf("expected skipped without transport, got %+v", out)
	}
	tr := &recordingTransport{}
	ch := NewEmailChannel(tr, 0)
	if out := ch.Deliver(ctx, addr, DeliveryPayload{}); out.Status != DeliverySkipped {
		t.Fatalf("expected skipped without content, got %+v", out)
	}
	if out := ch.Deliver(ctx, DeliveryAddress{UserID: 4}, DeliveryPayload{Email: msg}); out.Status != DeliverySkipped {
		t.Fatalf("expected skipped without address, got %+v", out)
	}

	out := ch.Deliver(ctx, addr, DeliveryPayload{Email: msg})
	if out.Status != DeliveryDelivered || out.Channel != ChannelEmail {
		t.Fatalf("unexpected outcome %+v", out)
	}
	sent := tr.messages()
	if len(sent) != 1 || sent[0].To != "bob@campus.edu" || sent[0].ToName != "Bob" {
		t.Fatalf("unexpected sent messages %+v", sent)
	}
	if msg.To != "" {
		t.Fatal("channel must not mutate the shared payload")
	}

	tr.err = errors.New("smtp 451")
	if out := ch.Deliver(ctx, addr, DeliveryPayload{Email: msg}); out.Status != DeliveryFailed || !errors.Is(out.Err, ErrChannelFailed) {
		t.Fatalf("expected failed outcome, got %+v", out)
	}
}
