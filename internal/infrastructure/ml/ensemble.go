package ml

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
	"fraud-scoring-service/internal/infrastructure/metrics"
	"fraud-scoring-service/internal/pkg/logger"
)

// neutralScore stands in for a sub-model that failed
const neutralScore = 0.5

var (
	tracer = otel.Tracer("fraud-scoring-service/ml")

	largeAmount     = decimal.NewFromInt(10000)
	veryLargeAmount = decimal.NewFromInt(50000)

	errNoSnapshot = errors.New("behavioral snapshot missing")
)

// Ensemble implements fraud.Predictor by weighting four sub-models
type Ensemble struct {
	classifier fraud.Classifier
	risk       fraud.RiskCalculator
	weights    fraud.ScoreWeights
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewEnsemble creates the combiner. m may be nil.
func NewEnsemble(classifier fraud.Classifier, risk fraud.RiskCalculator, weights fraud.ScoreWeights, log *zap.Logger, m *metrics.Metrics) *Ensemble {
	return &Ensemble{
		classifier: classifier,
		risk:       risk,
		weights:    weights,
		logger:     logger.OrNop(log).Named("ensemble"),
		metrics:    m,
	}
}

// Predict always returns a probability in [0,1]. Sub-models run one after
// another and any that fails contributes 0.5.
func (e *Ensemble) Predict(ctx context.Context, tx *transaction.Transaction, profile *fraud.UserProfile, snapshot *fraud.BehavioralSnapshot) float64 {
	ctx, span := tracer.Start(ctx, "ensemble.Predict")
	defer span.End()

	classifier := e.guard(tx, "classifier", func() (float64, error) {
		return e.classifier.Predict(ctx, tx, profile, snapshot)
	})
	ruleBased := e.guard(tx, "rule_based", func() (float64, error) {
		return ruleBasedScore(tx, snapshot), nil
	})
	statistical := e.guard(tx, "statistical", func() (float64, error) {
		return e.statisticalScore(ctx, tx)
	})
	behavioral := e.guard(tx, "behavioral", func() (float64, error) {
		if snapshot == nil {
			return 0, errNoSnapshot
		}
		return float64(snapshot.RiskScore) / 100, nil
	})

	p := e.weights.Classifier*classifier +
		e.weights.RuleBased*ruleBased +
		e.weights.Statistical*statistical +
		e.weights.Behavioral*behavioral
	p = fraud.Clamp01(p)

	span.SetAttributes(
		attribute.Float64("ensemble.classifier", classifier),
		attribute.Float64("ensemble.rule_based", ruleBased),
		attribute.Float64("ensemble.statistical", statistical),
		attribute.Float64("ensemble.behavioral", behavioral),
		attribute.Float64("ensemble.probability", p),
	)
	return p
}

// guard isolates a sub-model: errors, panics and NaN become the neutral score
func (e *Ensemble) guard(tx *transaction.Transaction, name string, fn func() (float64, error)) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			score = e.fallback(tx, name, fmt.Errorf("panic: %v", r))
		}
	}()

	v, err := fn()
	if err == nil && math.IsNaN(v) {
		err = errors.New("sub-model returned NaN")
	}
	if err != nil {
		return e.fallback(tx, name, err)
	}
	return fraud.Clamp01(v)
}

func (e *Ensemble) fallback(tx *transaction.Transaction, name string, err error) float64 {
	e.logger.Warn("sub-model failed, using neutral score",
		zap.String("model", name),
		zap.String("transaction_id", tx.ID.String()),
		zap.Error(err),
	)
	e.metrics.Fallback("ensemble", name)
	return neutralScore
}

// statisticalScore blends mean and max of the population-level breakdown
func (e *Ensemble) statisticalScore(ctx context.Context, tx *transaction.Transaction) (float64, error) {
	values := e.risk.ComputeAll(ctx, tx, nil).Values()
	if len(values) == 0 {
		return 0, errors.New("empty risk breakdown")
	}
	mean := floats.Sum(values) / float64(len(values))
	return 0.6*mean + 0.4*floats.Max(values), nil
}

// ruleBasedScore is an additive heuristic over amount, flags and hour
func ruleBasedScore(tx *transaction.Transaction, snapshot *fraud.BehavioralSnapshot) float64 {
	score := 0.0
	if tx.Amount.GreaterThan(largeAmount) {
		score += 0.3
	}
	if tx.Amount.GreaterThan(veryLargeAmount) {
		score += 0.4
	}

	if snapshot != nil {
		if snapshot.HasFlag(fraud.FlagFirstTimeCountry) {
			score += 0.2
		}
		if snapshot.HasFlag(fraud.FlagHighVelocity1H) || snapshot.HasFlag(fraud.FlagHighVelocity24H) {
			score += 0.3
		}
		if snapshot.HasFlag(fraud.FlagUnusualAmount) {
			score += 0.2
		}
		if snapshot.HasFlag(fraud.FlagNewDevice) {
			score += 0.15
		}
	}

	hour := tx.Timestamp.Hour()
	if hour >= 1 && hour <= 5 {
		score += 0.15
	}
	return math.Min(score, 1)
}
