package otp

import (
	"time"

	"github.com/google/uuid"
)

// Channel identifies how a verification code reaches the user
type Channel string

const (
	ChannelSms                 Channel = "SMS"
	ChannelEmail               Channel = "EMAIL"
	ChannelGoogleAuthenticator Channel = "GOOGLE_AUTHENTICATOR"
)

// Valid reports whether the channel is one of the known constants
func (c Channel) Valid() bool {
	switch c {
	case ChannelSms, ChannelEmail, ChannelGoogleAuthenticator:
		return true
	}
	return false
}

// Record is one issued verification code. Historical records are
// retained; at most one unverified, unexpired record per (user, channel)
// is active for verification. Authenticator enrollments are long-lived
// secrets stored separately, not Records.
type Record struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Code         string    `json:"-"`
	Channel      Channel   `json:"channel"`
	ExpiresAt    time.Time `json:"expires_at"`
	Verified     bool      `json:"verified"`
	Retired      bool      `json:"retired"`
	AttemptCount int       `json:"attempt_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Active reports whether the record can still be used for verification
func (r *Record) Active(now time.Time) bool {
	return !r.Verified && !r.Retired && now.Before(r.ExpiresAt)
}
