package risk

import (
	"fmt"
	"time"
)

// Built-in rule variants. Each is a strategy object registered at startup;
// the scorer only sees the Rule interface.

// UnusualHourRule flags activity in the small hours of the night
type UnusualHourRule struct {
	// Inclusive start, exclusive end, local hours
	StartHour int
	EndHour   int
	Increment int
}

// NewUnusualHourRule flags events between 2 AM and 5 AM
func NewUnusualHourRule() *UnusualHourRule {
	return &UnusualHourRule{StartHour: 2, EndHour: 5, Increment: 10}
}

func (r *UnusualHourRule) Name() string { return "UNUSUAL_HOUR" }

func (r *UnusualHourRule) Evaluate(sig Signal) RuleResult {
	hour := sig.OccurredAt.Hour()
	if hour >= r.StartHour && hour < r.EndHour {
		return RuleResult{
			Triggered:     true,
			RiskIncrement: r.Increment,
			Reason:        r.Name(),
		}
	}
	return RuleResult{}
}

// NewAccountRule flags events from subjects created very recently
type NewAccountRule struct {
	MinAge    time.Duration
	Increment int
}

// NewNewAccountRule flags accounts younger than 24 hours
func NewNewAccountRule() *NewAccountRule {
	return &NewAccountRule{MinAge: 24 * time.Hour, Increment: 15}
}

func (r *NewAccountRule) Name() string { return "NEW_ACCOUNT" }

func (r *NewAccountRule) Evaluate(sig Signal) RuleResult {
	if sig.Profile == nil || sig.Profile.CreatedAt.IsZero() {
		return RuleResult{}
	}
	if sig.OccurredAt.Sub(sig.Profile.CreatedAt) < r.MinAge {
		return RuleResult{
			Triggered:     true,
			RiskIncrement: r.Increment,
			Reason:        r.Name(),
		}
	}
	return RuleResult{}
}

// DormantAccountRule flags subjects inactive for a long stretch that
// suddenly produce events
type DormantAccountRule struct {
	DormantAfter time.Duration
	Increment    int
}

// NewDormantAccountRule flags accounts inactive for over 90 days
func NewDormantAccountRule() *DormantAccountRule {
	return &DormantAccountRule{DormantAfter: 90 * 24 * time.Hour, Increment: 15}
}

func (r *DormantAccountRule) Name() string { return "DORMANT_ACCOUNT" }

func (r *DormantAccountRule) Evaluate(sig Signal) RuleResult {
	if sig.Profile == nil || sig.Profile.LastActivityAt.IsZero() {
		return RuleResult{}
	}
	if sig.OccurredAt.Sub(sig.Profile.LastActivityAt) > r.DormantAfter {
		return RuleResult{
			Triggered:     true,
			RiskIncrement: r.Increment,
			Reason:        r.Name(),
		}
	}
	return RuleResult{}
}

// RoundAmountRule flags suspiciously round amounts, a common structuring
// pattern in AML screening
type RoundAmountRule struct {
	// Amounts must be at least this large and divisible by Multiple
	MinAmount int64
	Multiple  int64
	Increment int
}

// NewRoundAmountRule flags round multiples of 1000 at or above 9000
func NewRoundAmountRule() *RoundAmountRule {
	return &RoundAmountRule{MinAmount: 9000, Multiple: 1000, Increment: 10}
}

func (r *RoundAmountRule) Name() string { return "ROUND_AMOUNT" }

func (r *RoundAmountRule) Evaluate(sig Signal) RuleResult {
	if !sig.Amount.IsInteger() {
		return RuleResult{}
	}
	amount := sig.Amount.IntPart()
	if amount >= r.MinAmount && amount%r.Multiple == 0 {
		return RuleResult{
			Triggered:     true,
			RiskIncrement: r.Increment,
			Reason:        r.Name(),
		}
	}
	return RuleResult{}
}

// BlockedAgentRule flags events whose user agent matches a deny list,
// typically headless clients used by automated abuse
type BlockedAgentRule struct {
	Blocked   []string
	Increment int
}

// NewBlockedAgentRule flags a small set of scripted clients
func NewBlockedAgentRule(blocked []string) *BlockedAgentRule {
	return &BlockedAgentRule{Blocked: blocked, Increment: 20}
}

func (r *BlockedAgentRule) Name() string { return "BLOCKED_AGENT" }

func (r *BlockedAgentRule) Evaluate(sig Signal) RuleResult {
	for _, b := range r.Blocked {
		if sig.UserAgent == b {
			return RuleResult{
				Triggered:     true,
				RiskIncrement: r.Increment,
				Reason:        fmt.Sprintf("%s:%s", r.Name(), b),
			}
		}
	}
	return RuleResult{}
}
