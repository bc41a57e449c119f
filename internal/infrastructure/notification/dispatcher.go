// Package notification provides outbound code delivery. The production
// providers sit behind otp.Dispatcher; this package ships a logging
// implementation for environments without a provider.
package notification

import (
	"context"

	"go.uber.org/zap"

	"credit-risk-core/internal/domain/otp"
)

// LogDispatcher logs outbound messages instead of delivering them
type LogDispatcher struct {
	logger *zap.Logger
}

var _ otp.Dispatcher = (*LogDispatcher)(nil)

// NewLogDispatcher creates a dispatcher that writes to the log
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogDispatcher{logger: logger}
}

// SendSms logs an SMS that would have been sent
func (d *LogDispatcher) SendSms(ctx context.Context, to, body string) error {
	d.logger.Info("sms dispatched", zap.String("to", to))
	return nil
}

// SendEmail logs an email that would have been sent
func (d *LogDispatcher) SendEmail(ctx context.Context, to, subject, body string) error {
	d.logger.Info("email dispatched", zap.String("to", to), zap.String("subject", subject))
	return nil
}
