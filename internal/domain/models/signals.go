package models

// Recommendation is the consensus verdict.
type Recommendation string

const (
	Buy  Recommendation = "BUY"
	Sell Recommendation = "SELL"
	Hold Recommendation = "HOLD"
)

// RuleOutcome is what a rule did with the batch.
type RuleOutcome string

const (
	OutcomePass     RuleOutcome = "pass"
	OutcomeDecided  RuleOutcome = "decided"
	OutcomeFallback RuleOutcome = "fallback"
)

// AuditEntry records a single evaluated rule.
type AuditEntry struct {
	Step    int         `json:"step"`
	Rule    string      `json:"rule"`
	Outcome RuleOutcome `json:"outcome"`
	Detail  string      `json:"detail"`
	Sources []string    `json:"sources,omitempty"`
}

// SignificanceTest holds the statistics of the weighted-vote test.
type SignificanceTest struct {
	Distribution string  `json:"distribution"`
	N            int     `json:"n"`
	DF           int     `json:"df,omitempty"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Statistic    float64 `json:"statistic"`
	PValue       float64 `json:"p_value"`
	Alpha        float64 `json:"alpha"`
	Significant  bool    `json:"significant"`
}

// ConsensusResult is the verdict of one consensus run plus its audit trail.
type ConsensusResult struct {
	Recommendation Recommendation    `json:"recommendation"`
	Strength       float64           `json:"strength"`
	Reason         string            `json:"reason"`
	FallbackUsed   bool              `json:"fallback_used"`
	WeightedVote   *float64          `json:"weighted_vote,omitempty"`
	Test           *SignificanceTest `json:"test,omitempty"`
	Audit          []AuditEntry      `json:"audit"`
}
