package dto

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"credit-risk-core/internal/domain/risk"
)

// ScoreEventRequest is the inbound shape for one event to score
type ScoreEventRequest struct {
	SubjectID  string `json:"subject_id"`
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	IPAddress  string `json:"ip_address"`
	UserAgent  string `json:"user_agent"`
	OccurredAt string `json:"occurred_at"`
}

// ToEvent validates and converts the request to a domain event
func (r *ScoreEventRequest) ToEvent() (*risk.Event, error) {
	subjectID, err := uuid.Parse(r.SubjectID)
	if err != nil {
		return nil, errors.New("invalid subject_id")
	}

	kind := risk.EventKind(r.Kind)
	switch kind {
	case risk.KindCreditApplication, risk.KindCustomerInfoUpdate, risk.KindLogin, risk.KindTransaction:
	default:
		return nil, errors.New("invalid event kind")
	}

	amount := decimal.Zero
	if r.Amount != "" {
		amount, err = decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, errors.New("invalid amount")
		}
	}

	occurredAt := time.Now()
	if r.OccurredAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, r.OccurredAt)
		if err != nil {
			return nil, errors.New("invalid occurred_at, expected RFC3339")
		}
	}

	return &risk.Event{
		SubjectID:  subjectID,
		Kind:       kind,
		Amount:     amount,
		IPAddress:  r.IPAddress,
		UserAgent:  r.UserAgent,
		OccurredAt: occurredAt,
	}, nil
}

// ScoreEventResponse is the outcome of scoring one event
type ScoreEventResponse struct {
	Level     string     `json:"level"`
	Score     int        `json:"score"`
	Reason    string     `json:"reason,omitempty"`
	CaseID    *uuid.UUID `json:"case_id,omitempty"`
	Throttled bool       `json:"throttled"`
}

// CaseResponse is a suspicious case as exposed over the API
type CaseResponse struct {
	ID            uuid.UUID  `json:"id"`
	SubjectID     uuid.UUID  `json:"subject_id"`
	Kind          string     `json:"kind"`
	Amount        string     `json:"amount,omitempty"`
	RiskScore     int        `json:"risk_score"`
	RiskLevel     string     `json:"risk_level"`
	DetectionRule string     `json:"detection_rule"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	DetectedAt    time.Time  `json:"detected_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy    string     `json:"resolved_by,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// FromCase converts a domain case to its API shape
func FromCase(c *risk.SuspiciousCase) CaseResponse {
	resp := CaseResponse{
		ID:            c.ID,
		SubjectID:     c.SubjectID,
		Kind:          string(c.Kind),
		RiskScore:     c.RiskScore,
		RiskLevel:     string(c.RiskLevel),
		DetectionRule: c.DetectionRule,
		Description:   c.Description,
		Status:        string(c.Status),
		DetectedAt:    c.DetectedAt,
		ResolvedAt:    c.ResolvedAt,
		ResolvedBy:    c.ResolvedBy,
		Notes:         c.Notes,
	}
	if c.Amount != nil {
		resp.Amount = c.Amount.String()
	}
	return resp
}

// FromCases converts a list of domain cases
func FromCases(cases []*risk.SuspiciousCase) []CaseResponse {
	out := make([]CaseResponse, 0, len(cases))
	for _, c := range cases {
		out = append(out, FromCase(c))
	}
	return out
}

// ResolveCaseRequest carries a reviewer's resolution
type ResolveCaseRequest struct {
	Notes           string `json:"notes"`
	ResolvedBy      string `json:"resolved_by"`
	IsFalsePositive bool   `json:"is_false_positive"`
}

// ReportCaseRequest carries a reviewer's report notes
type ReportCaseRequest struct {
	Notes string `json:"notes"`
}

// CustomerAssessmentResponse is the rollup over a customer's cases
type CustomerAssessmentResponse struct {
	SubjectID   uuid.UUID `json:"subject_id"`
	Level       string    `json:"level"`
	TotalCases  int       `json:"total_cases"`
	HighCases   int       `json:"high_cases"`
	MediumCases int       `json:"medium_cases"`
}
