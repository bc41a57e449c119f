package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"credit-risk-core/internal/domain/otp"
)

// OtpStore is an in-memory otp.Store
type OtpStore struct {
	mu      sync.RWMutex
	records []*otp.Record
	secrets map[uuid.UUID]string
}

var _ otp.Store = (*OtpStore)(nil)

// NewOtpStore creates an empty in-memory OTP store
func NewOtpStore() *OtpStore {
	return &OtpStore{secrets: make(map[uuid.UUID]string)}
}

// Save stores a newly issued record
func (s *OtpStore) Save(ctx context.Context, rec *otp.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records = append(s.records, &cp)
	return nil
}

// Update replaces a stored record by id
func (s *OtpStore) Update(ctx context.Context, rec *otp.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.records {
		if existing.ID == rec.ID {
			cp := *rec
			s.records[i] = &cp
			return nil
		}
	}
	return otp.ErrRecordNotFound
}

// LatestActive returns the newest live record for (user, channel)
func (s *OtpStore) LatestActive(ctx context.Context, userID uuid.UUID, channel otp.Channel, now time.Time) (*otp.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *otp.Record
	for _, rec := range s.records {
		if rec.UserID != userID || rec.Channel != channel || !rec.Active(now) {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, otp.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

// RetireExpired soft-retires unverified records past their expiry
func (s *OtpStore) RetireExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	retired := 0
	for _, rec := range s.records {
		if !rec.Verified && !rec.Retired && rec.ExpiresAt.Before(now) {
			rec.Retired = true
			retired++
		}
	}
	return retired, nil
}

// SaveSecret stores a user's authenticator secret
func (s *OtpStore) SaveSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[userID] = secret
	return nil
}

// Secret returns a user's authenticator secret
func (s *OtpStore) Secret(ctx context.Context, userID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.secrets[userID]
	if !ok {
		return "", otp.ErrSecretNotFound
	}
	return secret, nil
}
