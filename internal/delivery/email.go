package delivery

import (
	"log/slog"

	"github.com/sandeepkv93/campus-notify-core/internal/config"
	"github.com/sandeepkv93/campus-notify-core/internal/service"
)

// NewEmailTransport picks the configured provider, degrading to the log transport when
// the provider has no credentials.
func NewEmailTransport(cfg *config.Config, logger *slog.Logger) service.EmailTransport {
	if logger == nil {
		logger = slog.Default()
	}
	provider := cfg.EffectiveEmailProvider()
	if provider != cfg.EmailProvider {
		logger.Warn("email provider missing credentials, falling back to log transport", "configured", cfg.EmailProvider)
	}
	switch provider {
	case config.EmailProviderBrevo:
		return NewBrevoTransport(cfg.BrevoAPIKey, cfg.BrevoAPIURL, cfg.EmailSenderAddress, cfg.EmailSenderName, nil)
	case config.EmailProviderSMTP:
		return NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailSenderAddress, cfg.EmailSenderName, cfg.SMTPUsername, cfg.SMTPPassword)
	default:
		return NewLogTransport(logger)
	}
}
