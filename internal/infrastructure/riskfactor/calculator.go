package riskfactor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
	"fraud-scoring-service/internal/infrastructure/metrics"
	"fraud-scoring-service/internal/pkg/logger"
)

// fallbackScore replaces a sub-score that could not be computed
const fallbackScore = 0.5

var tracer = otel.Tracer("fraud-scoring-service/riskfactor")

// DefaultHighRiskCountries are origins that add geolocation risk
var DefaultHighRiskCountries = []string{"NG", "PK", "VN", "ID", "RO"}

// Calculator computes the five named risk scores for a transaction
type Calculator struct {
	history           transaction.HistoryRepository
	highRiskCountries map[string]bool
	logger            *zap.Logger
	metrics           *metrics.Metrics
	now               fraud.Clock
}

// Option configures a Calculator
type Option func(*Calculator)

// WithClock pins the calculator's notion of now
func WithClock(now fraud.Clock) Option {
	return func(c *Calculator) { c.now = now }
}

// WithHighRiskCountries replaces the default high-risk country set
func WithHighRiskCountries(countries []string) Option {
	return func(c *Calculator) { c.highRiskCountries = toSet(countries) }
}

// WithMetrics counts fallbacks
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Calculator) { c.metrics = m }
}

// NewCalculator creates a risk factor calculator over the transaction history
func NewCalculator(history transaction.HistoryRepository, log *zap.Logger, opts ...Option) *Calculator {
	c := &Calculator{
		history:           history,
		highRiskCountries: toSet(DefaultHighRiskCountries),
		logger:            logger.OrNop(log).Named("riskfactor"),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type factorFunc func(ctx context.Context, tx *transaction.Transaction, now time.Time) (float64, error)

// ComputeAll runs the five sub-calculations concurrently and waits for all of
// them. A failed dimension scores 0.5 without affecting the others.
func (c *Calculator) ComputeAll(ctx context.Context, tx *transaction.Transaction, profile *fraud.UserProfile) fraud.RiskBreakdown {
	ctx, span := tracer.Start(ctx, "riskfactor.ComputeAll")
	defer span.End()

	factors := []struct {
		name string
		fn   factorFunc
	}{
		{fraud.FactorDevice, c.deviceRisk},
		{fraud.FactorVelocity, c.velocityRisk},
		{fraud.FactorGeolocation, c.geolocationRisk},
		{fraud.FactorAmount, c.amountRisk},
		{fraud.FactorTime, c.timeRisk},
	}

	// one anchor for every dimension of this call
	now := c.now()
	scores := make([]float64, len(factors))

	var g errgroup.Group
	for i, f := range factors {
		g.Go(func() error {
			scores[i] = c.guard(ctx, f.name, f.fn, tx, now)
			return nil
		})
	}
	_ = g.Wait()

	breakdown := make(fraud.RiskBreakdown, len(factors))
	for i, f := range factors {
		breakdown[f.name] = scores[i]
		span.SetAttributes(attribute.Float64("riskfactor."+f.name, scores[i]))
	}
	return breakdown
}

// guard runs fn, turning errors and panics into the fallback score
func (c *Calculator) guard(ctx context.Context, name string, fn factorFunc, tx *transaction.Transaction, now time.Time) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			score = c.fallback(name, tx, fmt.Errorf("panic: %v", r))
		}
	}()

	v, err := fn(ctx, tx, now)
	if err != nil {
		return c.fallback(name, tx, err)
	}
	return fraud.Clamp01(v)
}

func (c *Calculator) fallback(name string, tx *transaction.Transaction, err error) float64 {
	c.logger.Warn("risk factor failed, using fallback",
		zap.String("factor", name),
		zap.String("transaction_id", tx.ID.String()),
		zap.Error(err),
	)
	c.metrics.Fallback("riskfactor", name)
	return fallbackScore
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
