package email

import (
	"context"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/usermanagement-backend/pkg/logger"
	"github.com/angelmondragon/usermanagement-backend/pkg/metrics"
)

type subscriber interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

// Consumer drains queued email messages and hands them to a delivery transport.
type Consumer struct {
	subscription subscriber
	transport    Transport
	metrics      *metrics.EmailMetrics
	logg         *logger.Logger
}

func NewConsumer(subscription *gcppubsub.Subscriber, transport Transport, m *metrics.EmailMetrics, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("email subscription required")
	}
	return newConsumer(subscription, transport, m, logg)
}

func newConsumer(subscription subscriber, transport Transport, m *metrics.EmailMetrics, logg *logger.Logger) (*Consumer, error) {
	if transport == nil {
		return nil, fmt.Errorf("email transport required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		transport:    transport,
		metrics:      m,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		if c.process(ctx, msg.ID, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process reports whether the message should be acked. Malformed payloads are
// acked so they do not redeliver forever; delivery failures are retried.
func (c *Consumer) process(ctx context.Context, id string, data []byte) bool {
	logCtx := c.logg.WithField(ctx, "message_id", id)

	msg, err := DecodeMessage(data)
	if err != nil {
		c.logg.Error(logCtx, "dropping malformed email message", err)
		return true
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"email_kind": string(msg.Kind),
		"to":         msg.To,
	})

	start := time.Now()
	err = c.transport.Deliver(ctx, msg)
	c.metrics.Observe(string(msg.Kind), time.Since(start), err)
	if err != nil {
		c.logg.Error(logCtx, "email delivery failed", err)
		return false
	}
	c.logg.Info(logCtx, "email delivered")
	return true
}
