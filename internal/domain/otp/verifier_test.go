package otp

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	potp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

// stubStore keeps records and secrets in memory for verifier tests
type stubStore struct {
	records []*Record
	secrets map[uuid.UUID]string
}

func newStubStore() *stubStore {
	return &stubStore{secrets: make(map[uuid.UUID]string)}
}

func (s *stubStore) Save(ctx context.Context, rec *Record) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *stubStore) Update(ctx context.Context, rec *Record) error {
	for i, r := range s.records {
		if r.ID == rec.ID {
			s.records[i] = rec
			return nil
		}
	}
	return ErrRecordNotFound
}

func (s *stubStore) LatestActive(ctx context.Context, userID uuid.UUID, channel Channel, now time.Time) (*Record, error) {
	var latest *Record
	for _, r := range s.records {
		if r.UserID != userID || r.Channel != channel || !r.Active(now) {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, ErrRecordNotFound
	}
	return latest, nil
}

func (s *stubStore) RetireExpired(ctx context.Context, now time.Time) (int, error) {
	n := 0
	for _, r := range s.records {
		if !r.Verified && !r.Retired && !now.Before(r.ExpiresAt) {
			r.Retired = true
			n++
		}
	}
	return n, nil
}

func (s *stubStore) SaveSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	s.secrets[userID] = secret
	return nil
}

func (s *stubStore) Secret(ctx context.Context, userID uuid.UUID) (string, error) {
	secret, ok := s.secrets[userID]
	if !ok {
		return "", ErrSecretNotFound
	}
	return secret, nil
}

// recordingDispatcher captures outbound messages
type recordingDispatcher struct {
	sms    []string
	emails []string
}

func (d *recordingDispatcher) SendSms(ctx context.Context, to, body string) error {
	d.sms = append(d.sms, to)
	return nil
}

func (d *recordingDispatcher) SendEmail(ctx context.Context, to, subject, body string) error {
	d.emails = append(d.emails, to)
	return nil
}

func newTestVerifier(enabled bool) (*Verifier, *stubStore, *recordingDispatcher, *clockz.FakeClock) {
	store := newStubStore()
	dispatcher := &recordingDispatcher{}
	clock := clockz.NewFakeClock()
	v := NewVerifier(store, dispatcher, clock, VerifierConfig{
		Enabled:    enabled,
		CodeLength: 6,
		Ttl:        5 * time.Minute,
		Issuer:     "credit-risk-core",
	}, nil)
	return v, store, dispatcher, clock
}

func TestVerifier_SmsRoundTrip(t *testing.T) {
	v, _, dispatcher, _ := newTestVerifier(true)
	userID := uuid.New()
	ctx := context.Background()

	code, err := v.Generate(ctx, userID, ChannelSms, "+15550001111")
	require.NoError(t, err)
	require.Len(t, code, 6)
	assert.Equal(t, []string{"+15550001111"}, dispatcher.sms)

	ok, err := v.Verify(ctx, userID, code, ChannelSms)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifier_CodesAreSingleUse(t *testing.T) {
	v, _, _, _ := newTestVerifier(true)
	userID := uuid.New()
	ctx := context.Background()

	code, err := v.Generate(ctx, userID, ChannelEmail, "user@example.com")
	require.NoError(t, err)

	ok, err := v.Verify(ctx, userID, code, ChannelEmail)
	require.NoError(t, err)
	require.True(t, ok)

	// Replay of a consumed code fails
	ok, err = v.Verify(ctx, userID, code, ChannelEmail)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifier_WrongCodeCountsAttempt(t *testing.T) {
	v, store, _, _ := newTestVerifier(true)
	userID := uuid.New()
	ctx := context.Background()

	code, err := v.Generate(ctx, userID, ChannelSms, "+15550001111")
	require.NoError(t, err)

	ok, err := v.Verify(ctx, userID, "000000", ChannelSms)
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, store.records, 1)
	assert.Equal(t, 1, store.records[0].AttemptCount)

	// The right code still works after failed attempts
	ok, err = v.Verify(ctx, userID, code, ChannelSms)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifier_ExpiredCodeFails(t *testing.T) {
	v, store, _, clock := newTestVerifier(true)
	userID := uuid.New()
	ctx := context.Background()

	code, err := v.Generate(ctx, userID, ChannelSms, "+15550001111")
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)

	ok, err := v.Verify(ctx, userID, code, ChannelSms)
	require.NoError(t, err)
	assert.False(t, ok)
	// No candidate record, so nothing to count the attempt against
	assert.Equal(t, 0, store.records[0].AttemptCount)
}

func TestVerifier_LatestCodeWins(t *testing.T) {
	v, _, _, clock := newTestVerifier(true)
	userID := uuid.New()
	ctx := context.Background()

	first, err := v.Generate(ctx, userID, ChannelSms, "+15550001111")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := v.Generate(ctx, userID, ChannelSms, "+15550001111")
	require.NoError(t, err)

	if first == second {
		t.Skip("codes collided")
	}

	ok, err := v.Verify(ctx, userID, first, ChannelSms)
	require.NoError(t, err)
	assert.False(t, ok, "superseded code must not verify")

	ok, err = v.Verify(ctx, userID, second, ChannelSms)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifier_ChannelsAreIndependent(t *testing.T) {
	v, _, _, _ := newTestVerifier(true)
	userID := uuid.New()
	ctx := context.Background()

	smsCode, err := v.Generate(ctx, userID, ChannelSms, "+15550001111")
	require.NoError(t, err)
	emailCode, err := v.Generate(ctx, userID, ChannelEmail, "user@example.com")
	require.NoError(t, err)
	if smsCode == emailCode {
		t.Skip("codes collided")
	}

	// An SMS code submitted on the email channel does not match
	ok, err := v.Verify(ctx, userID, smsCode, ChannelEmail)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.Verify(ctx, userID, smsCode, ChannelSms)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifier_InvalidChannel(t *testing.T) {
	v, _, _, _ := newTestVerifier(true)
	ctx := context.Background()

	_, err := v.Generate(ctx, uuid.New(), Channel("CARRIER_PIGEON"), "roof")
	assert.ErrorIs(t, err, ErrInvalidChannel)

	_, err = v.Verify(ctx, uuid.New(), "123456", Channel("CARRIER_PIGEON"))
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestVerifier_MissingDestination(t *testing.T) {
	v, _, _, _ := newTestVerifier(true)

	_, err := v.Generate(context.Background(), uuid.New(), ChannelSms, "")
	assert.ErrorIs(t, err, ErrMissingContact)
}

func TestVerifier_DisabledSkipsVerification(t *testing.T) {
	v, store, dispatcher, _ := newTestVerifier(false)
	userID := uuid.New()
	ctx := context.Background()

	code, err := v.Generate(ctx, userID, ChannelSms, "+15550001111")
	require.NoError(t, err)
	assert.Empty(t, code)
	assert.Empty(t, store.records)
	assert.Empty(t, dispatcher.sms)

	// Kill switch: every check passes
	ok, err := v.Verify(ctx, userID, "anything", ChannelSms)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifier_AuthenticatorEnrollAndVerify(t *testing.T) {
	v, store, _, clock := newTestVerifier(true)
	userID := uuid.New()
	ctx := context.Background()

	secret, err := v.Generate(ctx, userID, ChannelGoogleAuthenticator, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, secret)
	assert.Equal(t, secret, store.secrets[userID])
	// Enrollment issues no short-lived record
	assert.Empty(t, store.records)

	code, err := totp.GenerateCodeCustom(secret, clock.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    potp.DigitsSix,
		Algorithm: potp.AlgorithmSHA1,
	})
	require.NoError(t, err)

	ok, err := v.Verify(ctx, userID, code, ChannelGoogleAuthenticator)
	require.NoError(t, err)
	assert.True(t, ok)

	// Authenticator codes are reusable within their validity window
	ok, err = v.Verify(ctx, userID, code, ChannelGoogleAuthenticator)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify(ctx, userID, "000000", ChannelGoogleAuthenticator)
	require.NoError(t, err)
	if code != "000000" {
		assert.False(t, ok)
	}
}

func TestVerifier_AuthenticatorSkewWindow(t *testing.T) {
	v, _, _, clock := newTestVerifier(true)
	userID := uuid.New()
	ctx := context.Background()

	secret, err := v.Generate(ctx, userID, ChannelGoogleAuthenticator, "")
	require.NoError(t, err)

	opts := totp.ValidateOpts{Period: 30, Skew: 1, Digits: potp.DigitsSix, Algorithm: potp.AlgorithmSHA1}

	// A code from one step back still validates with skew 1
	prev, err := totp.GenerateCodeCustom(secret, clock.Now().Add(-30*time.Second), opts)
	require.NoError(t, err)
	ok, err := v.Verify(ctx, userID, prev, ChannelGoogleAuthenticator)
	require.NoError(t, err)
	assert.True(t, ok)

	// A code from far outside the window does not
	stale, err := totp.GenerateCodeCustom(secret, clock.Now().Add(-10*time.Minute), opts)
	require.NoError(t, err)
	ok, err = v.Verify(ctx, userID, stale, ChannelGoogleAuthenticator)
	require.NoError(t, err)
	if stale != prev {
		assert.False(t, ok)
	}
}

func TestVerifier_AuthenticatorWithoutEnrollment(t *testing.T) {
	v, _, _, _ := newTestVerifier(true)

	ok, err := v.Verify(context.Background(), uuid.New(), "123456", ChannelGoogleAuthenticator)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifier_CleanupRetiresExpired(t *testing.T) {
	v, store, _, clock := newTestVerifier(true)
	ctx := context.Background()

	_, err := v.Generate(ctx, uuid.New(), ChannelSms, "+15550001111")
	require.NoError(t, err)
	_, err = v.Generate(ctx, uuid.New(), ChannelEmail, "a@example.com")
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	_, err = v.Generate(ctx, uuid.New(), ChannelSms, "+15550002222")
	require.NoError(t, err)

	n, err := v.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, store.records[0].Retired)
	assert.True(t, store.records[1].Retired)
	assert.False(t, store.records[2].Retired)
}
