package observability

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestBuildAuditEventIncludesRequiredFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/credentials/password-reset/verify", nil)
	req.Header.Set("X-Request-Id", "req-test-1")
	req.RemoteAddr = "127.0.0.1:12345"

	ev := BuildAuditEvent(req, AuditInput{
		EventName:  "credential.verify",
		TargetType: "identity",
		TargetID:   MaskEmail("student@uni.edu"),
		Action:     "verify",
		Outcome:    "success",
		Reason:     "code_consumed",
	})

	if ev.EventVersion != 1 {
		t.Fatalf("expected event version 1, got %d", ev.EventVersion)
	}
	if ev.ActorUserID != "anonymous" || ev.ActorIP != "127.0.0.1" || ev.RequestID != "req-test-1" {
		t.Fatalf("unexpected request derived fields: %+v", ev)
	}
	if ev.TargetID != "s***@uni.edu" {
		t.Fatalf("expected masked identity, got %q", ev.TargetID)
	}
	if _, err := time.Parse(time.RFC3339, ev.TS); err != nil {
		t.Fatalf("expected RFC3339 ts, got %q err=%v", ev.TS, err)
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
}

func TestAuditEventValidateRejectsMissingEventName(t *testing.T) {
	ev := AuditEvent{
		EventVersion: 1,
		Action:       "verify",
		Outcome:      "success",
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
	if err := ev.Validate(); err == nil {
		t.Fatal("expected validation error for missing event_name")
	}
}

func TestMaskEmailHandlesMalformedInput(t *testing.T) {
	if got := MaskEmail("not-an-email"); got != "***" {
		t.Fatalf("unexpected mask: %q", got)
	}
	if got := MaskEmail("@uni.edu"); got != "***" {
		t.Fatalf("unexpected mask for empty local part: %q", got)
	}
}
