package mail

import (
	"context"
	"log/slog"
)

// Mailer delivers a single HTML message. No delivery confirmation is
// surfaced beyond the transport error.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// LogMailer writes the message to the log instead of sending it. Used when
// no email API key is configured, so local development works end to end.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, html string) error {
	m.logger.Info("mail not sent (no provider configured)",
		"to", to,
		"subject", subject,
		"html", html,
	)
	return nil
}
