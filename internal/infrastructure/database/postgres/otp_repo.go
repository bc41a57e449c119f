package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"credit-risk-core/internal/domain/otp"
)

// OtpRecordModel is the database model for issued codes
type OtpRecordModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;index:idx_otp_user_channel;not null"`
	Code         string    `gorm:"type:varchar(16);not null"`
	Channel      string    `gorm:"type:varchar(30);index:idx_otp_user_channel;not null"`
	ExpiresAt    time.Time `gorm:"index;not null"`
	Verified     bool      `gorm:"not null"`
	Retired      bool      `gorm:"not null"`
	AttemptCount int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for OTP records
func (OtpRecordModel) TableName() string {
	return "otp_records"
}

// TotpSecretModel stores long-lived authenticator secrets, one per user
type TotpSecretModel struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Secret    string    `gorm:"type:varchar(128);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for authenticator secrets
func (TotpSecretModel) TableName() string {
	return "totp_secrets"
}

// OtpRepository implements otp.Store
type OtpRepository struct {
	db *gorm.DB
}

var _ otp.Store = (*OtpRepository)(nil)

// NewOtpRepository creates a new OTP repository
func NewOtpRepository(client *Client) *OtpRepository {
	return &OtpRepository{db: client.DB()}
}

// Save stores a newly issued record
func (r *OtpRepository) Save(ctx context.Context, rec *otp.Record) error {
	return r.db.WithContext(ctx).Create(toOtpModel(rec)).Error
}

// Update persists verification state and attempt counts
func (r *OtpRepository) Update(ctx context.Context, rec *otp.Record) error {
	result := r.db.WithContext(ctx).
		Model(&OtpRecordModel{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"verified":      rec.Verified,
			"retired":       rec.Retired,
			"attempt_count": rec.AttemptCount,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return otp.ErrRecordNotFound
	}
	return nil
}

// LatestActive returns the newest live record for (user, channel)
func (r *OtpRepository) LatestActive(ctx context.Context, userID uuid.UUID, channel otp.Channel, now time.Time) (*otp.Record, error) {
	var model OtpRecordModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND channel = ? AND verified = false AND retired = false AND expires_at > ?",
			userID, string(channel), now).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, otp.ErrRecordNotFound
		}
		return nil, err
	}
	return fromOtpModel(&model), nil
}

// RetireExpired soft-retires unverified records past their expiry
func (r *OtpRepository) RetireExpired(ctx context.Context, now time.Time) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&OtpRecordModel{}).
		Where("verified = false AND retired = false AND expires_at < ?", now).
		Update("retired", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// SaveSecret upserts a user's authenticator secret
func (r *OtpRepository) SaveSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	now := time.Now()
	model := &TotpSecretModel{
		UserID:    userID,
		Secret:    secret,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"secret", "updated_at"}),
		}).
		Create(model).Error
}

// Secret returns a user's authenticator secret
func (r *OtpRepository) Secret(ctx context.Context, userID uuid.UUID) (string, error) {
	var model TotpSecretModel
	err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", otp.ErrSecretNotFound
		}
		return "", err
	}
	return model.Secret, nil
}

func toOtpModel(rec *otp.Record) *OtpRecordModel {
	return &OtpRecordModel{
		ID:           rec.ID,
		UserID:       rec.UserID,
		Code:         rec.Code,
		Channel:      string(rec.Channel),
		ExpiresAt:    rec.ExpiresAt,
		Verified:     rec.Verified,
		Retired:      rec.Retired,
		AttemptCount: rec.AttemptCount,
		CreatedAt:    rec.CreatedAt,
	}
}

func fromOtpModel(m *OtpRecordModel) *otp.Record {
	return &otp.Record{
		ID:           m.ID,
		UserID:       m.UserID,
		Code:         m.Code,
		Channel:      otp.Channel(m.Channel),
		ExpiresAt:    m.ExpiresAt,
		Verified:     m.Verified,
		Retired:      m.Retired,
		AttemptCount: m.AttemptCount,
		CreatedAt:    m.CreatedAt,
	}
}
