package fraud

import (
	"math"
)

// Risk factor keys. The first five make up a RiskBreakdown.
const (
	FactorDevice      = "DeviceRisk"
	FactorVelocity    = "VelocityRisk"
	FactorGeolocation = "GeolocationRisk"
	FactorAmount      = "AmountRisk"
	FactorTime        = "TimeRisk"

	FactorEnsemble       = "EnsembleScore"
	FactorExternalSignal = "ExternalSignalScore"
	FactorBehavioral     = "BehavioralRisk"
	FactorRuleViolations = "RuleViolationCount"
)

// BreakdownKeys lists the fixed keys of a RiskBreakdown in reporting order
var BreakdownKeys = []string{FactorDevice, FactorVelocity, FactorGeolocation, FactorAmount, FactorTime}

// RiskBreakdown maps each risk dimension to a score in [0,1]
type RiskBreakdown map[string]float64

// Values returns the scores in BreakdownKeys order
func (b RiskBreakdown) Values() []float64 {
	out := make([]float64, 0, len(BreakdownKeys))
	for _, k := range BreakdownKeys {
		out = append(out, b[k])
	}
	return out
}

// ScoreWeights defines how much each sub-model contributes to the ensemble
type ScoreWeights struct {
	Classifier  float64 `json:"classifier" mapstructure:"classifier"`
	RuleBased   float64 `json:"rule_based" mapstructure:"rule_based"`
	Statistical float64 `json:"statistical" mapstructure:"statistical"`
	Behavioral  float64 `json:"behavioral" mapstructure:"behavioral"`
}

// DefaultScoreWeights returns the production ensemble weights
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Classifier:  0.40,
		RuleBased:   0.25,
		Statistical: 0.20,
		Behavioral:  0.15,
	}
}

// Sum adds the four weights
func (w ScoreWeights) Sum() float64 {
	return w.Classifier + w.RuleBased + w.Statistical + w.Behavioral
}

// DecisionThresholds are the probability cut-offs used by the orchestrator
type DecisionThresholds struct {
	ManualReview float64 `json:"manual_review"`
	Decline      float64 `json:"decline"`
}

// DefaultDecisionThresholds returns review at 0.5 and decline above 0.7
func DefaultDecisionThresholds() DecisionThresholds {
	return DecisionThresholds{ManualReview: 0.5, Decline: 0.7}
}

// InReviewBand reports whether p is inconclusive
func (t DecisionThresholds) InReviewBand(p float64) bool {
	return p >= t.ManualReview && p < t.Decline
}

// Clamp01 bounds v to [0,1]. NaN becomes 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
