package delivery

import (
	"context"
	"log/slog"

	"github.com/sandeepkv93/campus-notify-core/internal/observability"
	"github.com/sandeepkv93/campus-notify-core/internal/service"
)

// LogTransport records that a message would have been sent. Bodies carry one-time
// codes, so only the envelope is logged.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Name() string { return "log" }

func (t *LogTransport) Send(ctx context.Context, msg service.EmailMessage) error {
	t.logger.InfoContext(ctx, "email accepted by log transport",
		"to", observability.MaskEmail(msg.To),
		"subject", msg.Subject,
		"html_bytes", len(msg.HTML),
		"text_bytes", len(msg.Text),
	)
	return nil
}
