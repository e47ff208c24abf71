package email

import (
	"context"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/usermanagement-backend/pkg/config"
	"github.com/angelmondragon/usermanagement-backend/pkg/logger"
	"github.com/angelmondragon/usermanagement-backend/pkg/mail"
)

const defaultPublishTimeout = 5 * time.Second

// Transport hands a message to a delivery backend.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// LogTransport writes messages to the structured log; used in dev and tests.
type LogTransport struct {
	logg *logger.Logger
}

func NewLogTransport(logg *logger.Logger) *LogTransport {
	return &LogTransport{logg: logg}
}

func (t *LogTransport) Deliver(ctx context.Context, msg Message) error {
	if t.logg == nil {
		return nil
	}
	ctx = t.logg.WithFields(ctx, map[string]any{
		"email_kind": string(msg.Kind),
		"to":         msg.To,
		"subject":    msg.Subject,
	})
	t.logg.Info(ctx, "email delivered to log transport")
	return nil
}

// MailgunTransport renders messages through Mailgun stored templates.
type MailgunTransport struct {
	sender    mail.Sender
	templates map[Kind]string
}

func NewMailgunTransport(sender mail.Sender, cfg config.MailgunConfig) *MailgunTransport {
	return &MailgunTransport{
		sender: sender,
		templates: map[Kind]string{
			KindVerifyEmail:   cfg.VerifyEmailTemplate,
			KindAccountLocked: cfg.AccountLockedTemplate,
		},
	}
}

func (t *MailgunTransport) Deliver(ctx context.Context, msg Message) error {
	e := &mail.Email{
		To:      []string{msg.To},
		Subject: msg.Subject,
		Body:    msg.Body(),
	}
	if tpl := t.templates[msg.Kind]; tpl != "" {
		e.Template = tpl
		e.TemplateVars = make(map[string]any, len(msg.Vars))
		for k, v := range msg.Vars {
			e.TemplateVars[k] = v
		}
	}
	return t.sender.Send(ctx, e)
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// PubSubTransport queues messages for cmd/email-worker.
type PubSubTransport struct {
	pub     publisher
	timeout time.Duration
}

func NewPubSubTransport(p *gcppubsub.Publisher) (*PubSubTransport, error) {
	if p == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &PubSubTransport{pub: &gcpPublisher{Publisher: p}, timeout: defaultPublishTimeout}, nil
}

func (t *PubSubTransport) Deliver(ctx context.Context, msg Message) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	publishCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	result := t.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"email_kind": string(msg.Kind),
		},
	})
	if result == nil {
		return fmt.Errorf("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish email: %w", err)
	}
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}

// Stop flushes pending publishes and releases the publisher.
func (t *PubSubTransport) Stop() {
	if p, ok := t.pub.(*gcpPublisher); ok && p.Publisher != nil {
		p.Publisher.Stop()
	}
}
