package risk

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Signal is the snapshot a rule sees for one event. Windowed counting is
// done once by the scorer and passed in, so rules never read shared state.
type Signal struct {
	SubjectID  uuid.UUID
	Kind       EventKind
	Amount     decimal.Decimal
	IPAddress  string
	UserAgent  string
	OccurredAt time.Time

	// Post-increment window readings for this subject
	RecentEventCount int64
	RecentEventSum   decimal.Decimal

	// Optional profile snapshot, nil when the caller has none
	Profile *SubjectProfile
}

// SubjectProfile carries read-only subject attributes some rules consult
type SubjectProfile struct {
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// RuleResult is one rule's contribution to an event's score
type RuleResult struct {
	Triggered     bool
	RiskIncrement int
	Reason        string
}

// Rule evaluates one detection heuristic against an event signal.
// Implementations must be pure: no persistence, no shared mutable state.
// The rule set is open; the scorer iterates registered rules in order
// without knowing concrete types.
type Rule interface {
	Name() string
	Evaluate(sig Signal) RuleResult
}
