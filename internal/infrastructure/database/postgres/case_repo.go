package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"credit-risk-core/internal/domain/risk"
)

// SuspiciousCaseModel is the database model for suspicious cases
type SuspiciousCaseModel struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	SubjectID     uuid.UUID        `gorm:"type:uuid;index;not null"`
	Kind          string           `gorm:"type:varchar(40);not null"`
	Amount        *decimal.Decimal `gorm:"type:decimal(15,2)"`
	RiskScore     int              `gorm:"not null"`
	RiskLevel     string           `gorm:"type:varchar(10);index;not null"`
	DetectionRule string           `gorm:"type:varchar(100)"`
	Description   string           `gorm:"type:text"`
	Status        string           `gorm:"type:varchar(20);index;not null"`
	IPAddress     string           `gorm:"type:varchar(45)"`
	UserAgent     string           `gorm:"type:text"`
	DetectedAt    time.Time        `gorm:"index;not null"`
	ResolvedAt    *time.Time
	ResolvedBy    string `gorm:"type:varchar(100)"`
	Notes         string `gorm:"type:text"`
}

// TableName returns the table name for suspicious cases
func (SuspiciousCaseModel) TableName() string {
	return "suspicious_cases"
}

// CaseRepository implements risk.CaseStore
type CaseRepository struct {
	db *gorm.DB
}

var _ risk.CaseStore = (*CaseRepository)(nil)

// NewCaseRepository creates a new case repository
func NewCaseRepository(client *Client) *CaseRepository {
	return &CaseRepository{db: client.DB()}
}

// Save stores a new suspicious case
func (r *CaseRepository) Save(ctx context.Context, c *risk.SuspiciousCase) error {
	return r.db.WithContext(ctx).Create(toCaseModel(c)).Error
}

// Update persists a status transition
func (r *CaseRepository) Update(ctx context.Context, c *risk.SuspiciousCase) error {
	result := r.db.WithContext(ctx).
		Model(&SuspiciousCaseModel{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"status":      string(c.Status),
			"notes":       c.Notes,
			"resolved_by": c.ResolvedBy,
			"resolved_at": c.ResolvedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return risk.ErrCaseNotFound
	}
	return nil
}

// FindByID retrieves a case by id
func (r *CaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*risk.SuspiciousCase, error) {
	var model SuspiciousCaseModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, risk.ErrCaseNotFound
		}
		return nil, err
	}
	return fromCaseModel(&model), nil
}

// FindByCustomer retrieves all cases for a subject
func (r *CaseRepository) FindByCustomer(ctx context.Context, subjectID uuid.UUID) ([]*risk.SuspiciousCase, error) {
	var models []SuspiciousCaseModel
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromCaseModels(models), nil
}

// FindByRiskLevel retrieves all cases at a level
func (r *CaseRepository) FindByRiskLevel(ctx context.Context, level risk.Level) ([]*risk.SuspiciousCase, error) {
	var models []SuspiciousCaseModel
	err := r.db.WithContext(ctx).
		Where("risk_level = ?", string(level)).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromCaseModels(models), nil
}

// FindByAmountAbove retrieves cases whose amount exceeds the threshold
func (r *CaseRepository) FindByAmountAbove(ctx context.Context, threshold decimal.Decimal) ([]*risk.SuspiciousCase, error) {
	var models []SuspiciousCaseModel
	err := r.db.WithContext(ctx).
		Where("amount > ?", threshold).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromCaseModels(models), nil
}

func toCaseModel(c *risk.SuspiciousCase) *SuspiciousCaseModel {
	return &SuspiciousCaseModel{
		ID:            c.ID,
		SubjectID:     c.SubjectID,
		Kind:          string(c.Kind),
		Amount:        c.Amount,
		RiskScore:     c.RiskScore,
		RiskLevel:     string(c.RiskLevel),
		DetectionRule: c.DetectionRule,
		Description:   c.Description,
		Status:        string(c.Status),
		IPAddress:     c.IPAddress,
		UserAgent:     c.UserAgent,
		DetectedAt:    c.DetectedAt,
		ResolvedAt:    c.ResolvedAt,
		ResolvedBy:    c.ResolvedBy,
		Notes:         c.Notes,
	}
}

func fromCaseModel(m *SuspiciousCaseModel) *risk.SuspiciousCase {
	return &risk.SuspiciousCase{
		ID:            m.ID,
		SubjectID:     m.SubjectID,
		Kind:          risk.EventKind(m.Kind),
		Amount:        m.Amount,
		RiskScore:     m.RiskScore,
		RiskLevel:     risk.Level(m.RiskLevel),
		DetectionRule: m.DetectionRule,
		Description:   m.Description,
		Status:        risk.CaseStatus(m.Status),
		IPAddress:     m.IPAddress,
		UserAgent:     m.UserAgent,
		DetectedAt:    m.DetectedAt,
		ResolvedAt:    m.ResolvedAt,
		ResolvedBy:    m.ResolvedBy,
		Notes:         m.Notes,
	}
}

func fromCaseModels(models []SuspiciousCaseModel) []*risk.SuspiciousCase {
	cases := make([]*risk.SuspiciousCase, 0, len(models))
	for i := range models {
		cases = append(cases, fromCaseModel(&models[i]))
	}
	return cases
}
