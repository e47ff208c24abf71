package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/usermanagement-backend/pkg/config"
	"github.com/mailgun/mailgun-go/v4"
)

const defaultSendTimeout = 10 * time.Second

// Email is a single templated message addressed to one or more recipients.
type Email struct {
	From         string
	To           []string
	Subject      string
	Body         string
	Template     string
	TemplateVars map[string]any
}

// Sender is satisfied by the Mailgun client.
type Sender interface {
	Send(ctx context.Context, e *Email) error
}

type mailgunAPI interface {
	Send(ctx context.Context, m *mailgun.Message) (string, string, error)
}

// Mailgun delivers email through the Mailgun HTTP API.
type Mailgun struct {
	api     mailgunAPI
	from    string
	timeout time.Duration
}

// NewMailgun builds a Mailgun sender from configuration.
func NewMailgun(cfg config.MailgunConfig, from string, timeout time.Duration) (*Mailgun, error) {
	if strings.TrimSpace(cfg.Domain) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("mailgun domain and api key are required")
	}
	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		mg.SetAPIBase(cfg.APIBase)
	}
	return newMailgun(mg, from, timeout), nil
}

func newMailgun(api mailgunAPI, from string, timeout time.Duration) *Mailgun {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Mailgun{api: api, from: from, timeout: timeout}
}

// Send delivers e, rendering the stored template when one is named.
func (m *Mailgun) Send(ctx context.Context, e *Email) error {
	if e == nil {
		return errors.New("email is required")
	}
	if len(e.To) == 0 {
		return errors.New("email recipient is required")
	}
	from := e.From
	if from == "" {
		from = m.from
	}

	message := mailgun.NewMessage(from, e.Subject, e.Body, e.To...)
	if e.Template != "" {
		message.SetTemplate(e.Template)
		for k, v := range e.TemplateVars {
			if err := message.AddTemplateVariable(k, v); err != nil {
				return fmt.Errorf("template variable %s: %w", k, err)
			}
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if _, _, err := m.api.Send(sendCtx, message); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
