package bus

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/cybertriage/cybertriage/internal/domain"
)

func TestNATSSubject(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "cybertriage.case.intake"},
		{"prod", "prod.cybertriage.case.intake"},
	}
	for _, tt := range tests {
		if got := natsSubject(tt.prefix, domain.TopicCaseIntake); got != tt.want {
			t.Errorf("natsSubject(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestNATSMessageEnvelope(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		payload := []byte(`{"caseId":"CYB-20260301-ABC123","status":"INTAKE_COMPLETE"}`)

		m := newNATSMsg("prod.cybertriage.case.intake", domain.TopicCaseIntake, payload, now)
		if string(m.Data) != string(payload) {
			t.Errorf("payload should be sent unwrapped, got %s", m.Data)
		}

		msg := messageFromNATS(m)
		if msg.ID == "" || msg.ID != m.Header.Get(nats.MsgIdHdr) {
			t.Errorf("unexpected message id %q", msg.ID)
		}
		if msg.Topic != domain.TopicCaseIntake {
			t.Errorf("expected the unprefixed topic, got %s", msg.Topic)
		}
		if msg.Timestamp != now.UnixNano() {
			t.Errorf("timestamp = %d, want %d", msg.Timestamp, now.UnixNano())
		}

		evt, err := DecodeEvent(msg)
		if err != nil {
			t.Fatalf("DecodeEvent failed: %v", err)
		}
		if evt.CaseID != "CYB-20260301-ABC123" {
			t.Errorf("unexpected event %+v", evt)
		}
	})

	t.Run("ForeignPublisher", func(t *testing.T) {
		msg := messageFromNATS(&nats.Msg{Subject: "cybertriage.case.updated", Data: []byte("{}")})
		if msg.Topic != "cybertriage.case.updated" || msg.ID != "" || msg.Timestamp != 0 {
			t.Errorf("unexpected message %+v", msg)
		}
		if msg.Metadata == nil {
			t.Error("expected non-nil metadata")
		}
	})
}

func TestNewNATSBusUnreachable(t *testing.T) {
	_, err := NewNATSBus(domain.EventBusConfig{
		NATSUrl:           "nats://127.0.0.1:1",
		NATSMaxReconnects: 1,
		NATSReconnectWait: 1,
	})
	if err == nil {
		t.Error("expected connection failure")
	}
}
