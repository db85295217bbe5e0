package consensus

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
)

var _ domsvc.ConsensusDecider = (*Engine)(nil)

const (
	ReasonUnanimousNeutral = "unanimous neutral"
	ReasonConflict         = "reliable-source conflict"
	ReasonSignificantBuy   = "significant positive consensus"
	ReasonSignificantSell  = "significant negative consensus"
	ReasonNotSignificant   = "weighted vote not significant"
	ReasonFallback         = "reliability-weighted majority"
)

// Thresholds parameterize the rule cascade.
type Thresholds struct {
	MinConfidence       float64
	ConflictReliability float64
	NeutralConfidence   float64
	Coherence           float64
	Alpha               float64
	Distribution        Distribution
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinConfidence:       0.5,
		ConflictReliability: 0.7,
		NeutralConfidence:   0.7,
		Coherence:           0.5,
		Alpha:               0.05,
		Distribution:        Normal,
	}
}

func (t Thresholds) validate() error {
	for name, v := range map[string]float64{
		"min_confidence":       t.MinConfidence,
		"conflict_reliability": t.ConflictReliability,
		"neutral_confidence":   t.NeutralConfidence,
		"coherence":            t.Coherence,
	} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("consensus %s must be in [0,1], got %v", name, v)
		}
	}
	if !(t.Alpha > 0 && t.Alpha < 1) {
		return fmt.Errorf("consensus significance must be in (0,1), got %v", t.Alpha)
	}
	if t.Distribution != Normal && t.Distribution != StudentT {
		return fmt.Errorf("consensus distribution must be %q or %q, got %q", Normal, StudentT, t.Distribution)
	}
	return nil
}

type verdict int

const (
	verdictNext verdict = iota
	verdictDecide
	verdictFallback
)

// rule is one step of the cascade. It either passes the batch on, decides
// it, or routes it to the fallback aggregator.
type rule struct {
	name string
	eval func(th Thresholds, st *state) (verdict, string, []string)
}

// state is the per-run scratchpad shared by the rules.
type state struct {
	signals []models.AgentSignal
	res     models.ConsensusResult
	vote    *float64
}

func (st *state) record(rule string, outcome models.RuleOutcome, detail string, sources []string) {
	st.res.Audit = append(st.res.Audit, models.AuditEntry{
		Step:    len(st.res.Audit) + 1,
		Rule:    rule,
		Outcome: outcome,
		Detail:  detail,
		Sources: sources,
	})
}

// Engine runs the ordered consensus cascade. Rules are plain data evaluated
// in order by a single loop, so the order is visible in one place.
type Engine struct {
	th        Thresholds
	validator *Validator
	rules     []rule
}

func NewEngine(th Thresholds, v *Validator) (*Engine, error) {
	if err := th.validate(); err != nil {
		return nil, err
	}
	if v == nil {
		v = NewValidator()
	}
	return &Engine{
		th:        th,
		validator: v,
		rules: []rule{
			{name: "unanimous-neutral", eval: unanimousNeutral},
			{name: "minimum-confidence", eval: minimumConfidence},
			{name: "reliable-conflict", eval: reliableConflict},
			{name: "weighted-coherence", eval: weightedCoherence},
			{name: "significance", eval: weightedSignificance},
		},
	}, nil
}

func (e *Engine) Thresholds() Thresholds { return e.th }

// Decide validates signals and evaluates them.
func (e *Engine) Decide(signals []models.AgentSignal) (models.ConsensusResult, error) {
	b, err := e.validator.Validate(signals)
	if err != nil {
		return models.ConsensusResult{}, err
	}
	return e.Evaluate(b), nil
}

// Evaluate runs the cascade on a validated batch. The result does not
// depend on the order of the signals.
func (e *Engine) Evaluate(b Batch) (res models.ConsensusResult) {
	st := &state{signals: canonical(b.signals)}
	defer func() {
		if r := recover(); r != nil {
			st.record("internal", models.OutcomeFallback, fmt.Sprintf("recovered: %v", r), nil)
			e.aggregate(st)
			res = e.report(st)
		}
	}()

	for _, r := range e.rules {
		v, detail, sources := r.eval(e.th, st)
		switch v {
		case verdictNext:
			st.record(r.name, models.OutcomePass, detail, sources)
		case verdictDecide:
			st.record(r.name, models.OutcomeDecided, detail, sources)
			return e.report(st)
		case verdictFallback:
			st.record(r.name, models.OutcomeFallback, detail, sources)
			e.aggregate(st)
			return e.report(st)
		}
	}
	st.record("cascade", models.OutcomeFallback, "no rule decided", nil)
	e.aggregate(st)
	return e.report(st)
}

func unanimousNeutral(th Thresholds, st *state) (verdict, string, []string) {
	if len(st.signals) == 0 {
		return verdictNext, "empty batch", nil
	}
	var sum float64
	for _, s := range st.signals {
		if s.Direction != 0 || s.Confidence < th.NeutralConfidence {
			return verdictNext, "not all signals are confidently neutral", nil
		}
		sum += s.Confidence
	}
	st.res.Recommendation = models.Hold
	st.res.Reason = ReasonUnanimousNeutral
	st.res.Strength = sum / float64(len(st.signals))
	return verdictDecide, fmt.Sprintf("%d neutral signals with confidence >= %.2f", len(st.signals), th.NeutralConfidence), nil
}

func minimumConfidence(th Thresholds, st *state) (verdict, string, []string) {
	var low []string
	for _, s := range st.signals {
		if s.Confidence < th.MinConfidence {
			low = append(low, s.Source)
		}
	}
	if len(low) > 0 {
		return verdictFallback, fmt.Sprintf("%d signal(s) below confidence %.2f", len(low), th.MinConfidence), low
	}
	return verdictNext, fmt.Sprintf("all confidences >= %.2f", th.MinConfidence), nil
}

func reliableConflict(th Thresholds, st *state) (verdict, string, []string) {
	var pos, neg []string
	for _, s := range st.signals {
		if s.Reliability < th.ConflictReliability {
			continue
		}
		switch s.Direction {
		case 1:
			pos = append(pos, s.Source)
		case -1:
			neg = append(neg, s.Source)
		}
	}
	if len(pos) > 0 && len(neg) > 0 {
		st.res.Recommendation = models.Hold
		st.res.Reason = ReasonConflict
		st.res.Strength = 0
		return verdictDecide, fmt.Sprintf("buy [%s] vs sell [%s] at reliability >= %.2f",
			strings.Join(pos, ","), strings.Join(neg, ","), th.ConflictReliability), append(pos, neg...)
	}
	return verdictNext, "no opposing reliable sources", nil
}

func weightedCoherence(th Thresholds, st *state) (verdict, string, []string) {
	var num, den float64
	for _, s := range st.signals {
		w := s.Confidence * s.Reliability
		num += float64(s.Direction) * w
		den += w
	}
	if den == 0 {
		return verdictFallback, "total weight is zero", nil
	}
	v := num / den
	st.vote = &v
	if math.Abs(v) < th.Coherence {
		return verdictFallback, fmt.Sprintf("|V|=%.4f below %.2f", math.Abs(v), th.Coherence), nil
	}
	return verdictNext, fmt.Sprintf("V=%.4f", v), nil
}

func weightedSignificance(th Thresholds, st *state) (verdict, string, []string) {
	x := make([]float64, len(st.signals))
	for i, s := range st.signals {
		x[i] = float64(s.Direction) * s.Confidence * s.Reliability
	}
	test, err := significance(x, th.Alpha, th.Distribution)
	if err != nil {
		return verdictFallback, err.Error(), nil
	}
	st.res.Test = &test
	detail := fmt.Sprintf("%s statistic=%.4f p=%.4g alpha=%.2f", test.Distribution, test.Statistic, test.PValue, test.Alpha)
	switch {
	case test.Significant && test.Mean > 0:
		st.res.Recommendation, st.res.Reason = models.Buy, ReasonSignificantBuy
	case test.Significant && test.Mean < 0:
		st.res.Recommendation, st.res.Reason = models.Sell, ReasonSignificantSell
	default:
		st.res.Recommendation, st.res.Reason = models.Hold, ReasonNotSignificant
	}
	return verdictDecide, detail, nil
}

// aggregate is the fallback: a plurality of reliability mass over the three
// directions. Ties resolve to HOLD.
func (e *Engine) aggregate(st *state) {
	var mass [3]float64 // sell, hold, buy
	var total float64
	for _, s := range st.signals {
		mass[s.Direction+1] += s.Reliability
		total += s.Reliability
	}

	order := []int{0, 1, 2}
	sort.SliceStable(order, func(i, j int) bool { return mass[order[i]] > mass[order[j]] })
	top, second := mass[order[0]], mass[order[1]]

	rec := models.Hold
	if top > second {
		rec = [...]models.Recommendation{models.Sell, models.Hold, models.Buy}[order[0]]
	}
	var margin float64
	if total > 0 {
		margin = (top - second) / total
	}

	st.res.Recommendation = rec
	st.res.Reason = ReasonFallback
	st.res.FallbackUsed = true
	st.res.Strength = margin
	st.res.Test = nil
	st.record("fallback-majority", models.OutcomeDecided,
		fmt.Sprintf("mass buy=%.3f hold=%.3f sell=%.3f margin=%.4f", mass[2], mass[1], mass[0], margin), nil)
}

func (e *Engine) report(st *state) models.ConsensusResult {
	if st.vote != nil {
		v := *st.vote
		st.res.WeightedVote = &v
		st.res.Strength = math.Abs(v)
	}
	st.res.Strength = math.Min(1, math.Max(0, st.res.Strength))
	st.record("report", models.OutcomeDecided,
		fmt.Sprintf("%s strength=%.4f fallback=%t", st.res.Recommendation, st.res.Strength, st.res.FallbackUsed), nil)
	return st.res
}

// canonical orders signals by source and value so that sums are taken in
// the same order for every permutation of the input.
func canonical(in []models.AgentSignal) []models.AgentSignal {
	out := make([]models.AgentSignal, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Direction != b.Direction {
			return a.Direction < b.Direction
		}
		if a.Confidence != b.Confidence {
			return a.Confidence < b.Confidence
		}
		return a.Reliability < b.Reliability
	})
	return out
}
