package email

import (
	"github.com/angelmondragon/usermanagement-backend/pkg/config"
	"github.com/angelmondragon/usermanagement-backend/pkg/logger"
	"github.com/angelmondragon/usermanagement-backend/pkg/mail"
)

// DeliveryTransport returns the transport that actually sends mail: Mailgun
// when credentials are configured, otherwise the log transport.
func DeliveryTransport(cfg *config.Config, logg *logger.Logger) (Transport, error) {
	if cfg.Mailgun.Domain == "" || cfg.Mailgun.APIKey == "" {
		return NewLogTransport(logg), nil
	}
	sender, err := mail.NewMailgun(cfg.Mailgun, cfg.Email.From, cfg.Email.Timeout)
	if err != nil {
		return nil, err
	}
	return NewMailgunTransport(sender, cfg.Mailgun), nil
}
