package risk

// RuleEngine holds the registered rule set and evaluates it against one
// event signal. Rules run in registration order; a triggered rule's
// reason overwrites the running reason, so the last rule to fire wins.
type RuleEngine struct {
	rules []Rule
}

// NewRuleEngine creates an engine with the given rules, in order
func NewRuleEngine(rules ...Rule) *RuleEngine {
	return &RuleEngine{rules: rules}
}

// Register appends a rule to the evaluation order
func (e *RuleEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rules in evaluation order
func (e *RuleEngine) Rules() []Rule {
	return e.rules
}

// EngineResult aggregates one pass over the rule set
type EngineResult struct {
	TotalIncrement int
	Reason         string
	Fired          []string
}

// EvaluateAll runs every registered rule against the signal and sums the
// increments of the triggered ones.
func (e *RuleEngine) EvaluateAll(sig Signal) EngineResult {
	var res EngineResult
	for _, rule := range e.rules {
		r := rule.Evaluate(sig)
		if !r.Triggered {
			continue
		}
		res.TotalIncrement += r.RiskIncrement
		res.Reason = r.Reason
		res.Fired = append(res.Fired, rule.Name())
	}
	return res
}
