package models

// Requests for the HTTP endpoints. Zero horizon/confidence fall back to the
// configured forecast defaults.

type PricePointRequest struct {
	T string  `json:"t" validate:"required"`
	V float64 `json:"v" validate:"gt=0"`
}

type ForecastRequest struct {
	Symbol     string              `json:"symbol"`
	Prices     []PricePointRequest `json:"prices" validate:"required,min=2,dive"`
	Horizon    int                 `json:"horizon" validate:"gte=0,lte=500"`
	Confidence float64             `json:"confidence" validate:"gte=0,lt=1"`
	Regime     string              `json:"regime"`
}

type ForecastQuery struct {
	Symbol     string  `query:"symbol" json:"symbol" validate:"required"`
	N          int     `query:"n" json:"n" default:"500" validate:"gte=2,lte=20000"`
	TF         string  `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
	From       string  `query:"from" json:"from,omitempty"`
	To         string  `query:"to" json:"to,omitempty"`
	Horizon    int     `query:"horizon" json:"horizon" validate:"gte=0,lte=500"`
	Confidence float64 `query:"confidence" json:"confidence" validate:"gte=0,lt=1"`
	Regime     string  `query:"regime" json:"regime"`
}

// ConsensusRequest leaves signal checks to the signal validator so that
// errors name the offending entry.
type ConsensusRequest struct {
	Symbol  string        `json:"symbol"`
	Signals []AgentSignal `json:"signals"`
}

type CollectRequest struct {
	Symbol string `json:"symbol" validate:"required"`
}
