package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	potp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

const (
	totpPeriod uint = 30
	totpSkew   uint = 1
)

// VerifierConfig carries OTP issuance parameters
type VerifierConfig struct {
	Enabled    bool
	CodeLength int
	Ttl        time.Duration
	Issuer     string
}

// Verifier generates, dispatches and verifies short-lived codes, and
// validates authenticator time-step codes against stored secrets.
// Lockout is a caller-composed policy over AttemptCount; the verifier
// only counts.
type Verifier struct {
	store      Store
	dispatcher Dispatcher
	clock      clockz.Clock
	cfg        VerifierConfig
	logger     *zap.Logger
}

// NewVerifier creates an OTP verifier
func NewVerifier(store Store, dispatcher Dispatcher, clock clockz.Clock, cfg VerifierConfig, logger *zap.Logger) *Verifier {
	if clock == nil {
		clock = clockz.RealClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		store:      store,
		dispatcher: dispatcher,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// Generate issues a code for the user on the given channel and dispatches
// it to destination. For GOOGLE_AUTHENTICATOR it enrolls a long-lived
// secret instead and returns it for provisioning. Dispatch failure is
// logged; the record remains valid and resend is the caller's action.
func (v *Verifier) Generate(ctx context.Context, userID uuid.UUID, channel Channel, destination string) (string, error) {
	if !channel.Valid() {
		return "", ErrInvalidChannel
	}
	if !v.cfg.Enabled {
		// Kill switch: nothing is issued, nothing is sent
		return "", nil
	}

	if channel == ChannelGoogleAuthenticator {
		return v.enrollAuthenticator(ctx, userID, destination)
	}

	if destination == "" {
		return "", ErrMissingContact
	}

	code, err := randomNumericCode(v.cfg.CodeLength)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerateFailed, err)
	}

	now := v.clock.Now()
	rec := &Record{
		ID:        uuid.New(),
		UserID:    userID,
		Code:      code,
		Channel:   channel,
		ExpiresAt: now.Add(v.cfg.Ttl),
		CreatedAt: now,
	}
	if err := v.store.Save(ctx, rec); err != nil {
		return "", fmt.Errorf("save otp record: %w", err)
	}

	v.dispatch(ctx, channel, destination, code)
	return code, nil
}

// Verify checks a submitted code. SMS/EMAIL codes are single-use: a
// match sets the verified flag; a mismatch increments the attempt count
// on the most recent candidate. Authenticator codes validate against the
// stored secret within the configured step window and stay reusable.
// A negative result is a normal outcome, not an error.
func (v *Verifier) Verify(ctx context.Context, userID uuid.UUID, code string, channel Channel) (bool, error) {
	if !channel.Valid() {
		return false, ErrInvalidChannel
	}
	if !v.cfg.Enabled {
		// Kill switch: treat every check as passed
		return true, nil
	}

	if channel == ChannelGoogleAuthenticator {
		return v.verifyAuthenticator(ctx, userID, code)
	}

	rec, err := v.store.LatestActive(ctx, userID, channel, v.clock.Now())
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			// Expired or never issued: no candidate to count against
			return false, nil
		}
		return false, fmt.Errorf("lookup otp record: %w", err)
	}

	if rec.Code != code {
		rec.AttemptCount++
		if err := v.store.Update(ctx, rec); err != nil {
			return false, fmt.Errorf("record failed attempt: %w", err)
		}
		return false, nil
	}

	rec.Verified = true
	if err := v.store.Update(ctx, rec); err != nil {
		return false, fmt.Errorf("mark verified: %w", err)
	}
	return true, nil
}

// CleanupExpired soft-retires unverified records past their expiry
func (v *Verifier) CleanupExpired(ctx context.Context) (int, error) {
	return v.store.RetireExpired(ctx, v.clock.Now())
}

func (v *Verifier) enrollAuthenticator(ctx context.Context, userID uuid.UUID, accountName string) (string, error) {
	if accountName == "" {
		accountName = userID.String()
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      v.cfg.Issuer,
		AccountName: accountName,
		SecretSize:  32,
	})
	if err != nil {
		return "", fmt.Errorf("generate totp key: %w", err)
	}
	if err := v.store.SaveSecret(ctx, userID, key.Secret()); err != nil {
		return "", fmt.Errorf("save totp secret: %w", err)
	}
	return key.Secret(), nil
}

func (v *Verifier) verifyAuthenticator(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	secret, err := v.store.Secret(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup totp secret: %w", err)
	}

	valid, err := totp.ValidateCustom(code, secret, v.clock.Now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    potp.DigitsSix,
		Algorithm: potp.AlgorithmSHA1,
	})
	if err != nil {
		return false, fmt.Errorf("validate totp code: %w", err)
	}
	// No verified flag: authenticator codes are reusable across steps
	return valid, nil
}

func (v *Verifier) dispatch(ctx context.Context, channel Channel, destination, code string) {
	if v.dispatcher == nil {
		return
	}
	var err error
	switch channel {
	case ChannelSms:
		err = v.dispatcher.SendSms(ctx, destination, fmt.Sprintf("Your verification code is %s", code))
	case ChannelEmail:
		err = v.dispatcher.SendEmail(ctx, destination, "Verification code", fmt.Sprintf("Your verification code is %s", code))
	}
	if err != nil {
		v.logger.Warn("otp dispatch failed, record remains valid",
			zap.String("channel", string(channel)),
			zap.Error(err))
	}
}

// randomNumericCode draws length digits from crypto/rand
func randomNumericCode(length int) (string, error) {
	const digits = "0123456789"
	code := make([]byte, length)
	buf := make([]byte, 1)
	for i := range code {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		code[i] = digits[buf[0]%byte(len(digits))]
	}
	return string(code), nil
}
