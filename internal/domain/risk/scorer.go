package risk

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Fixed-threshold check reasons
const (
	ReasonHighAmount      = "HIGH_AMOUNT"
	ReasonMediumAmount    = "MEDIUM_AMOUNT"
	ReasonFrequentEvents  = "FREQUENT_EVENTS"
	ReasonHighTotalAmount = "HIGH_TOTAL_AMOUNT"
)

// Fixed-threshold check increments
const (
	incrementHighAmount      = 30
	incrementMediumAmount    = 15
	incrementFrequentEvents  = 25
	incrementHighTotalAmount = 20
)

// CaseFlagger is the slice of the tracker the scorer needs: it requests
// case creation and nothing else.
type CaseFlagger interface {
	Flag(ctx context.Context, event Event, score int, level Level, rule, description string) (uuid.UUID, error)
}

// ProfileSource supplies read-only subject snapshots for rules that want
// them. May be nil, in which case rules see a nil profile.
type ProfileSource interface {
	Profile(ctx context.Context, subjectID uuid.UUID) (*SubjectProfile, error)
}

// ScorerConfig carries the scoring thresholds
type ScorerConfig struct {
	Enabled                  bool
	HighAmountThreshold      decimal.Decimal
	MediumAmountThreshold    decimal.Decimal
	FrequencyThreshold       int64
	CaseWorthyScoreThreshold int
	HighLevelScore           int
	MediumLevelScore         int
}

// Scorer turns one event into a risk assessment. It owns the single
// window read per event; rules receive the readings as parameters.
type Scorer struct {
	windows  WindowStore
	engine   *RuleEngine
	flagger  CaseFlagger
	profiles ProfileSource
	cfg      ScorerConfig
	logger   *zap.Logger
}

// NewScorer creates a scorer. flagger and profiles may be nil; a nil
// flagger means assessments are never persisted as cases.
func NewScorer(windows WindowStore, engine *RuleEngine, flagger CaseFlagger, profiles ProfileSource, cfg ScorerConfig, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		windows:  windows,
		engine:   engine,
		flagger:  flagger,
		profiles: profiles,
		cfg:      cfg,
		logger:   logger,
	}
}

// CounterKey derives the windowed counter key for an event, one counter
// namespace per event kind per subject.
func CounterKey(event Event) string {
	return strings.ToLower(string(event.Kind)) + ":" + event.SubjectID.String()
}

// Score evaluates one event: window increment, fixed-threshold checks,
// then the registered rule set. Scores at or above the case-worthy
// threshold open a suspicious case. The score accumulates without
// clamping; the reason reflects whichever check fired last.
func (s *Scorer) Score(ctx context.Context, event Event) (*Assessment, error) {
	if event.SubjectID == uuid.Nil {
		return nil, ErrMissingSubject
	}

	// Kill switch: disabled scoring is a permissive pass-through
	if !s.cfg.Enabled {
		return &Assessment{Level: LevelLow, Score: 0, RecentSum: decimal.Zero}, nil
	}

	count, sum, err := s.windows.Increment(ctx, CounterKey(event), event.Amount)
	if err != nil {
		return nil, fmt.Errorf("window increment: %w", err)
	}

	score := 0
	reason := ""

	// Fixed-threshold checks, in source order
	if event.Amount.GreaterThanOrEqual(s.cfg.HighAmountThreshold) {
		score += incrementHighAmount
		reason = ReasonHighAmount
	} else if event.Amount.GreaterThanOrEqual(s.cfg.MediumAmountThreshold) {
		score += incrementMediumAmount
		reason = ReasonMediumAmount
	}
	if count > s.cfg.FrequencyThreshold {
		score += incrementFrequentEvents
		reason = ReasonFrequentEvents
	}
	if sum.GreaterThanOrEqual(s.cfg.HighAmountThreshold.Mul(decimal.NewFromInt(2))) {
		score += incrementHighTotalAmount
		reason = ReasonHighTotalAmount
	}

	// Registered rule set
	sig := Signal{
		SubjectID:        event.SubjectID,
		Kind:             event.Kind,
		Amount:           event.Amount,
		IPAddress:        event.IPAddress,
		UserAgent:        event.UserAgent,
		OccurredAt:       event.OccurredAt,
		RecentEventCount: count,
		RecentEventSum:   sum,
	}
	if s.profiles != nil {
		profile, err := s.profiles.Profile(ctx, event.SubjectID)
		if err != nil {
			// A missing profile only mutes the profile-based rules
			s.logger.Debug("profile lookup failed",
				zap.String("subject_id", event.SubjectID.String()),
				zap.Error(err))
		} else {
			sig.Profile = profile
		}
	}
	if s.engine != nil {
		engineRes := s.engine.EvaluateAll(sig)
		score += engineRes.TotalIncrement
		if engineRes.Reason != "" {
			reason = engineRes.Reason
		}
	}

	assessment := &Assessment{
		Level:       levelFor(score, s.cfg),
		Score:       score,
		Reason:      reason,
		RecentCount: count,
		RecentSum:   sum,
	}

	// The case-worthy threshold sits below the medium level cutoff, so a
	// low-level assessment can still open a case.
	if score >= s.cfg.CaseWorthyScoreThreshold && s.flagger != nil {
		caseID, err := s.flagger.Flag(ctx, event, score, assessment.Level, reason, describe(event, reason))
		if err != nil {
			// Case creation is secondary to returning the assessment
			s.logger.Error("failed to flag suspicious case",
				zap.String("subject_id", event.SubjectID.String()),
				zap.Int("score", score),
				zap.Error(err))
		} else {
			assessment.CaseID = &caseID
		}
	}

	return assessment, nil
}

func levelFor(score int, cfg ScorerConfig) Level {
	switch {
	case score >= cfg.HighLevelScore:
		return LevelHigh
	case score >= cfg.MediumLevelScore:
		return LevelMedium
	default:
		return LevelLow
	}
}

func describe(event Event, reason string) string {
	return fmt.Sprintf("%s event for subject %s flagged: %s", event.Kind, event.SubjectID, reason)
}
