package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/infrastructure/resilience"
)

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
	ClientName           string
}

func New(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := options.ClientName
	if name == "" {
		name = "homestay-faq-assistant"
	}

	conn, err := nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// faqChangedEvent is the faq.changed payload.
type faqChangedEvent struct {
	FAQID     string    `json:"faq_id"`
	ChangedAt time.Time `json:"changed_at"`
}

func encodeFAQChanged(faqID string, at time.Time) ([]byte, error) {
	if strings.TrimSpace(faqID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "encode faq changed", errors.New("faq id is empty"))
	}
	return json.Marshal(faqChangedEvent{FAQID: faqID, ChangedAt: at.UTC()})
}

// decodeFAQChanged also accepts a bare id for events published by hand.
func decodeFAQChanged(data []byte) (string, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "decode faq changed", errors.New("empty payload"))
	}
	if !strings.HasPrefix(raw, "{") {
		return raw, nil
	}
	var event faqChangedEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "decode faq changed", err)
	}
	if event.FAQID == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "decode faq changed", errors.New("faq_id is empty"))
	}
	return event.FAQID, nil
}

func (q *Queue) PublishFAQChanged(ctx context.Context, faqID string) error {
	payload, err := encodeFAQChanged(faqID, time.Now())
	if err != nil {
		return err
	}
	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyPublishError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return publishFailure(faqID, err)
	}
	return nil
}

// SubscribeFAQChanged blocks until ctx is done. A non-empty group load-balances
// events across members; an empty group delivers every event to this subscriber.
func (q *Queue) SubscribeFAQChanged(ctx context.Context, group string, handler func(context.Context, string) error) error {
	callback := func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		faqID, err := decodeFAQChanged(msg.Data)
		if err != nil {
			q.logger.Warn("faq_event_rejected", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, faqID); err != nil {
			q.logger.Error("faq_event_handler_failed", "faq_id", faqID, "group", group, "error", err)
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if group != "" {
		sub, err = q.conn.QueueSubscribe(q.subject, group, callback)
	} else {
		sub, err = q.conn.Subscribe(q.subject, callback)
	}
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
