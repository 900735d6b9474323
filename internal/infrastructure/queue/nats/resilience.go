package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/resilience"
)

// connectionErrors mean the broker link is down or slow; a later faq.changed
// publish can succeed once the client reconnects.
var connectionErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
}

// classifyPublishError decides whether a failed faq.changed publish is retried
// and whether it counts against the publish breaker. Payload and subject
// problems fail fast.
func classifyPublishError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case resilience.IsAttemptTimeout(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The import or reindex that asked for the event gave up.
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err), isConnectionError(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

func isConnectionError(err error) bool {
	for _, target := range connectionErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// publishFailure marks broker outages as temporary so importers can tell a
// stored-but-unannounced FAQ from a rejected one.
func publishFailure(faqID string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyPublishError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "publish faq.changed "+faqID, err)
	}
	return err
}
