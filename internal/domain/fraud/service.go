package fraud

import (
	"context"
	"time"

	"fraud-scoring-service/internal/domain/transaction"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks

// Clock returns the current time. Every time-dependent component takes one.
type Clock func() time.Time

// Classifier is the primary fraud model. It is a black box to the scorer.
type Classifier interface {
	Predict(ctx context.Context, tx *transaction.Transaction, profile *UserProfile, snapshot *BehavioralSnapshot) (float64, error)
}

// SignalProvider is the external fraud-signal service
type SignalProvider interface {
	Score(ctx context.Context, tx *transaction.Transaction) (*ExternalSignal, error)
}

// GeoLocator resolves an IP address to a location
type GeoLocator interface {
	Lookup(ctx context.Context, ip string) (*GeoLocation, error)
}

// AlertPublisher hands alerts to the alerting bus
type AlertPublisher interface {
	Publish(ctx context.Context, alert *Alert) error
}

// RuleEngine evaluates deterministic business rules
type RuleEngine interface {
	// Evaluate returns every violation code the transaction triggers
	Evaluate(ctx context.Context, tx *transaction.Transaction, profile *UserProfile) ([]string, error)

	ShouldBlock(ctx context.Context, tx *transaction.Transaction) (bool, error)

	// RequiresManualReview is true inside the review probability band or when a
	// review-triggering violation is present
	RequiresManualReview(ctx context.Context, tx *transaction.Transaction, probability float64) (bool, error)
}

// BehaviorAnalyzer builds the behavioral snapshot. It never fails.
type BehaviorAnalyzer interface {
	Analyze(ctx context.Context, tx *transaction.Transaction, profile *UserProfile) *BehavioralSnapshot
}

// Predictor combines sub-models into a single fraud probability. It never fails.
type Predictor interface {
	Predict(ctx context.Context, tx *transaction.Transaction, profile *UserProfile, snapshot *BehavioralSnapshot) float64
}

// RiskCalculator computes the five-dimension risk breakdown. It never fails.
type RiskCalculator interface {
	ComputeAll(ctx context.Context, tx *transaction.Transaction, profile *UserProfile) RiskBreakdown
}
