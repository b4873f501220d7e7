package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers transactional mail. Provider integration lives behind this
// interface; the reset token only ever travels through it, never through an
// HTTP response body.
type Mailer interface {
	// SendPasswordReset delivers the reset link for a requested password reset
	SendPasswordReset(ctx context.Context, email, resetLink string) error
	// SendWelcome delivers the acquisition details after a gate submission
	SendWelcome(ctx context.Context, email, name, bookTitle, bookLink, couponCode string) error
}

// LogMailer writes mail to the log instead of delivering it. Default for
// development and tests.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// SendPasswordReset logs the reset link
func (m *LogMailer) SendPasswordReset(ctx context.Context, email, resetLink string) error {
	m.log.Info("password reset mail",
		zap.String("to", email),
		zap.String("reset_link", resetLink),
	)
	return nil
}

// SendWelcome logs the welcome mail
func (m *LogMailer) SendWelcome(ctx context.Context, email, name, bookTitle, bookLink, couponCode string) error {
	m.log.Info("welcome mail",
		zap.String("to", email),
		zap.String("subscriber", name),
		zap.String("book_title", bookTitle),
		zap.String("book_link", bookLink),
		zap.String("coupon_code", couponCode),
	)
	return nil
}
