package otp

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists OTP records and authenticator secrets
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error

	// LatestActive returns the most recent unverified, unexpired,
	// unretired record for (user, channel), or ErrRecordNotFound.
	LatestActive(ctx context.Context, userID uuid.UUID, channel Channel, now time.Time) (*Record, error)

	// RetireExpired soft-retires unverified records past their expiry
	// and returns how many were touched.
	RetireExpired(ctx context.Context, now time.Time) (int, error)

	// Authenticator secrets are long-lived, one per user
	SaveSecret(ctx context.Context, userID uuid.UUID, secret string) error
	Secret(ctx context.Context, userID uuid.UUID) (string, error)
}

// Dispatcher delivers codes out of band. Failures are reported to the
// caller's log, never escalated: the record stays valid and resend is an
// explicit caller action.
type Dispatcher interface {
	SendSms(ctx context.Context, to, body string) error
	SendEmail(ctx context.Context, to, subject, body string) error
}
