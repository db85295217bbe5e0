package models

// AgentSignal is one opinion from an independent analysis source.
type AgentSignal struct {
	Source      string  `json:"source"`
	Direction   int     `json:"direction" validate:"oneof=-1 0 1"`
	Confidence  float64 `json:"confidence" validate:"gte=0,lte=1"`
	Reliability float64 `json:"reliability" validate:"gte=0,lte=1"`
}

// SignalBatchMessage is the streaming envelope for one consensus run.
type SignalBatchMessage struct {
	BatchID string        `json:"batch_id"`
	Symbol  string        `json:"symbol"`
	Signals []AgentSignal `json:"signals"`
}

// DecisionMessage is what gets published for every decided batch.
type DecisionMessage struct {
	BatchID string          `json:"batch_id,omitempty"`
	Symbol  string          `json:"symbol"`
	Result  ConsensusResult `json:"result"`
	TS      int64           `json:"ts"`
}
