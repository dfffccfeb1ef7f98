// Package mail delivers the few transactional messages listguard sends:
// subscription confirmations and template test sends.
package mail

import (
	"context"
	"errors"

	"github.com/ignite/listguard/internal/pkg/logger"
)

// ErrUnavailable is returned while the SES circuit breaker is open.
var ErrUnavailable = errors.New("mail delivery temporarily unavailable")

// Mailer delivers one HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// LogMailer logs messages instead of sending them. Used when SES is not
// configured.
type LogMailer struct{}

// Send logs the message envelope.
func (LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	logger.Info("mail not sent (delivery disabled)", "to", to, "subject", subject, "bytes", len(htmlBody))
	return nil
}
