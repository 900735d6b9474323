package nats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/resilience"
)

func TestFAQChangedRoundTrip(t *testing.T) {
	payload, err := encodeFAQChanged("faq-1", time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("encodeFAQChanged() error = %v", err)
	}
	id, err := decodeFAQChanged(payload)
	if err != nil {
		t.Fatalf("decodeFAQChanged() error = %v", err)
	}
	if id != "faq-1" {
		t.Fatalf("expected faq-1, got %q", id)
	}
}

func TestDecodeFAQChangedAcceptsBareID(t *testing.T) {
	id, err := decodeFAQChanged([]byte(" faq-2\n"))
	if err != nil || id != "faq-2" {
		t.Fatalf("expected bare id, got %q err=%v", id, err)
	}
}

func TestDecodeFAQChangedRejectsBadPayloads(t *testing.T) {
	for _, raw := range []string{"", "{", `{"faq_id":""}`} {
		if _, err := decodeFAQChanged([]byte(raw)); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %q, got %v", raw, err)
		}
	}
	if _, err := encodeFAQChanged(" ", time.Now()); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty id, got %v", err)
	}
}

func TestPublishFailureMarksBrokerOutageTemporary(t *testing.T) {
	err := publishFailure("faq-1", fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed))
	if !domain.IsKind(err, domain.ErrTemporary) || !strings.Contains(err.Error(), "faq-1") {
		t.Fatalf("expected temporary error naming the faq, got %v", err)
	}

	permanent := fmt.Errorf("nats publish: %w", nats.ErrMaxPayload)
	if got := publishFailure("faq-1", permanent); domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("expected oversized payload to stay permanent, got %v", got)
	}
}

func TestClassifyPublishError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "no servers", err: nats.ErrNoServers, retryable: true, record: true},
		{name: "disconnected", err: fmt.Errorf("nats publish: %w", nats.ErrDisconnected), retryable: true, record: true},
		{name: "attempt timeout", err: resilience.ErrAttemptTimeout, retryable: true, record: true},
		{name: "caller cancelled", err: context.Canceled},
		{name: "bad subject", err: errors.New("nats: invalid subject"), record: true},
	}
	for _, tc := range cases {
		got := classifyPublishError(tc.err)
		if got.Retryable != tc.retryable || got.RecordFailure != tc.record {
			t.Fatalf("%s: got %+v", tc.name, got)
		}
	}
}
