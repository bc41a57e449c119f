package risk

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// Tracker owns the suspicious-case lifecycle. Every flagged event becomes
// its own case; cases are never deleted, only status-transitioned, which
// keeps the audit trail append-only.
type Tracker struct {
	store  CaseStore
	clock  clockz.Clock
	logger *zap.Logger
}

// NewTracker creates a case tracker over the given store
func NewTracker(store CaseStore, clock clockz.Clock, logger *zap.Logger) *Tracker {
	if clock == nil {
		clock = clockz.RealClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, clock: clock, logger: logger}
}

// Flag creates a PENDING_REVIEW case for a flagged event. No dedup across
// calls: two flags for the same subject are two cases.
func (t *Tracker) Flag(ctx context.Context, event Event, score int, level Level, rule, description string) (uuid.UUID, error) {
	c := NewSuspiciousCase(event, score, level, rule, description, t.clock.Now())
	if err := t.store.Save(ctx, c); err != nil {
		return uuid.Nil, fmt.Errorf("save case: %w", err)
	}
	t.logger.Info("suspicious case opened",
		zap.String("case_id", c.ID.String()),
		zap.String("subject_id", event.SubjectID.String()),
		zap.String("kind", string(event.Kind)),
		zap.Int("score", score),
		zap.String("level", string(level)),
		zap.String("rule", rule))
	return c.ID, nil
}

// Report transitions a pending case to REPORTED. Any other starting
// status is rejected with ErrInvalidCaseStatus.
func (t *Tracker) Report(ctx context.Context, caseID uuid.UUID, notes string) error {
	c, err := t.store.FindByID(ctx, caseID)
	if err != nil {
		return err
	}
	if err := c.Report(notes, t.clock.Now()); err != nil {
		return err
	}
	return t.store.Update(ctx, c)
}

// Resolve transitions a pending case to FALSE_POSITIVE or CONFIRMED_FRAUD
func (t *Tracker) Resolve(ctx context.Context, caseID uuid.UUID, notes, resolvedBy string, isFalsePositive bool) error {
	c, err := t.store.FindByID(ctx, caseID)
	if err != nil {
		return err
	}
	if err := c.Resolve(notes, resolvedBy, isFalsePositive, t.clock.Now()); err != nil {
		return err
	}
	return t.store.Update(ctx, c)
}

// Get retrieves a case by id
func (t *Tracker) Get(ctx context.Context, caseID uuid.UUID) (*SuspiciousCase, error) {
	return t.store.FindByID(ctx, caseID)
}

// ByCustomer lists a customer's cases, newest first
func (t *Tracker) ByCustomer(ctx context.Context, subjectID uuid.UUID) ([]*SuspiciousCase, error) {
	cases, err := t.store.FindByCustomer(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	sortByDetectedAt(cases)
	return cases, nil
}

// ByRiskLevel lists cases at the given level
func (t *Tracker) ByRiskLevel(ctx context.Context, level Level) ([]*SuspiciousCase, error) {
	if !level.Valid() {
		return nil, ErrInvalidLevel
	}
	cases, err := t.store.FindByRiskLevel(ctx, level)
	if err != nil {
		return nil, err
	}
	sortByDetectedAt(cases)
	return cases, nil
}

// ByAmountAbove lists cases whose amount exceeds the threshold
func (t *Tracker) ByAmountAbove(ctx context.Context, threshold decimal.Decimal) ([]*SuspiciousCase, error) {
	cases, err := t.store.FindByAmountAbove(ctx, threshold)
	if err != nil {
		return nil, err
	}
	sortByDetectedAt(cases)
	return cases, nil
}

// AssessCustomer rolls up a customer's existing cases into an overall
// level. This is a derived read, independent of per-event scoring.
func (t *Tracker) AssessCustomer(ctx context.Context, subjectID uuid.UUID) (*CustomerAssessment, error) {
	cases, err := t.store.FindByCustomer(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	assessment := &CustomerAssessment{
		SubjectID:  subjectID,
		TotalCases: len(cases),
	}
	for _, c := range cases {
		switch c.RiskLevel {
		case LevelHigh:
			assessment.HighCases++
		case LevelMedium:
			assessment.MediumCases++
		}
	}

	switch {
	case assessment.HighCases > 2:
		assessment.Level = LevelHigh
	case assessment.HighCases > 0 || assessment.MediumCases > 3:
		assessment.Level = LevelMedium
	default:
		assessment.Level = LevelLow
	}
	return assessment, nil
}

func sortByDetectedAt(cases []*SuspiciousCase) {
	sort.Slice(cases, func(i, j int) bool {
		return cases[i].DetectedAt.After(cases[j].DetectedAt)
	})
}
