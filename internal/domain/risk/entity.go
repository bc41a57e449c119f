package risk

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Level represents the severity of an assessment
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Ordinal returns the rank of the level for comparisons
func (l Level) Ordinal() int {
	switch l {
	case LevelHigh:
		return 2
	case LevelMedium:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the level is one of the known constants
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// EventKind identifies the type of event being scored
type EventKind string

const (
	KindCreditApplication  EventKind = "CREDIT_APPLICATION"
	KindCustomerInfoUpdate EventKind = "CUSTOMER_INFO_UPDATE"
	KindLogin              EventKind = "LOGIN"
	KindTransaction        EventKind = "TRANSACTION"
)

// CaseStatus represents the review state of a suspicious case.
// A case leaves PENDING_REVIEW exactly once; the remaining states are terminal.
type CaseStatus string

const (
	CaseStatusPendingReview  CaseStatus = "PENDING_REVIEW"
	CaseStatusReported       CaseStatus = "REPORTED"
	CaseStatusConfirmedFraud CaseStatus = "CONFIRMED_FRAUD"
	CaseStatusFalsePositive  CaseStatus = "FALSE_POSITIVE"
)

// Event is one inbound signal to be scored: a transaction, a profile
// update, a login attempt. Network metadata rides along for the rules.
type Event struct {
	SubjectID  uuid.UUID
	Kind       EventKind
	Amount     decimal.Decimal
	IPAddress  string
	UserAgent  string
	OccurredAt time.Time
}

// Assessment is the outcome of scoring one event
type Assessment struct {
	Level       Level           `json:"level"`
	Score       int             `json:"score"`
	Reason      string          `json:"reason"`
	CaseID      *uuid.UUID      `json:"case_id,omitempty"`
	RecentCount int64           `json:"recent_count"`
	RecentSum   decimal.Decimal `json:"recent_sum"`
}

// SuspiciousCase is the persisted record of a flagged event. Cases are
// append-only: they are never deleted, only status-transitioned.
type SuspiciousCase struct {
	ID            uuid.UUID        `json:"id"`
	SubjectID     uuid.UUID        `json:"subject_id"`
	Kind          EventKind        `json:"kind"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	RiskScore     int              `json:"risk_score"`
	RiskLevel     Level            `json:"risk_level"`
	DetectionRule string           `json:"detection_rule"`
	Description   string           `json:"description"`
	Status        CaseStatus       `json:"status"`
	IPAddress     string           `json:"ip_address"`
	UserAgent     string           `json:"user_agent"`
	DetectedAt    time.Time        `json:"detected_at"`
	ResolvedAt    *time.Time       `json:"resolved_at,omitempty"`
	ResolvedBy    string           `json:"resolved_by,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// NewSuspiciousCase creates a case in PENDING_REVIEW for a flagged event
func NewSuspiciousCase(event Event, score int, level Level, rule, description string, detectedAt time.Time) *SuspiciousCase {
	amount := event.Amount
	var amountPtr *decimal.Decimal
	if !amount.IsZero() || event.Kind == KindTransaction || event.Kind == KindCreditApplication {
		amountPtr = &amount
	}
	return &SuspiciousCase{
		ID:            uuid.New(),
		SubjectID:     event.SubjectID,
		Kind:          event.Kind,
		Amount:        amountPtr,
		RiskScore:     score,
		RiskLevel:     level,
		DetectionRule: rule,
		Description:   description,
		Status:        CaseStatusPendingReview,
		IPAddress:     event.IPAddress,
		UserAgent:     event.UserAgent,
		DetectedAt:    detectedAt,
	}
}

// Report transitions PENDING_REVIEW to REPORTED
func (c *SuspiciousCase) Report(notes string, at time.Time) error {
	if c.Status != CaseStatusPendingReview {
		return ErrInvalidCaseStatus
	}
	c.Status = CaseStatusReported
	c.Notes = notes
	c.ResolvedAt = &at
	return nil
}

// Resolve transitions PENDING_REVIEW to CONFIRMED_FRAUD or FALSE_POSITIVE
func (c *SuspiciousCase) Resolve(notes, resolvedBy string, isFalsePositive bool, at time.Time) error {
	if c.Status != CaseStatusPendingReview {
		return ErrInvalidCaseStatus
	}
	if isFalsePositive {
		c.Status = CaseStatusFalsePositive
	} else {
		c.Status = CaseStatusConfirmedFraud
	}
	c.Notes = notes
	c.ResolvedBy = resolvedBy
	c.ResolvedAt = &at
	return nil
}

// IsPending reports whether the case is still awaiting review
func (c *SuspiciousCase) IsPending() bool {
	return c.Status == CaseStatusPendingReview
}

// CustomerAssessment is a derived rollup over a customer's existing cases,
// independent of per-event scoring.
type CustomerAssessment struct {
	SubjectID   uuid.UUID `json:"subject_id"`
	Level       Level     `json:"level"`
	TotalCases  int       `json:"total_cases"`
	HighCases   int       `json:"high_cases"`
	MediumCases int       `json:"medium_cases"`
}
