package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
	"fraud-scoring-service/internal/infrastructure/metrics"
	"fraud-scoring-service/internal/pkg/logger"
)

const (
	reasonBlocked  = "Blocked by fraud rules"
	reasonLowRisk  = "Low fraud risk"
	reasonHighRisk = "High fraud risk"
	reasonReview   = "Manual review required"
)

var tracer = otel.Tracer("fraud-scoring-service/scoring")

// Config holds the decision parameters of the pipeline
type Config struct {
	Thresholds          fraud.DecisionThresholds
	EnsembleBlendWeight float64
	ExternalBlendWeight float64
	AnalysisTimeout     time.Duration
	BatchConcurrency    int
}

// DefaultConfig returns the production decision parameters
func DefaultConfig() Config {
	return Config{
		Thresholds:          fraud.DefaultDecisionThresholds(),
		EnsembleBlendWeight: 0.7,
		ExternalBlendWeight: 0.3,
		AnalysisTimeout:     5 * time.Second,
		BatchConcurrency:    8,
	}
}

// Dependencies are the collaborators of the scoring pipeline.
// Decisions is optional; when nil no audit trail is kept.
type Dependencies struct {
	Rules     fraud.RuleEngine
	Profiles  fraud.ProfileRepository
	Analyzer  fraud.BehaviorAnalyzer
	Predictor fraud.Predictor
	Risk      fraud.RiskCalculator
	Signal    fraud.SignalProvider
	Alerts    fraud.AlertPublisher
	Sink      transaction.Sink
	Decisions fraud.DecisionRepository
}

// ScoreTransactionUseCase runs the scoring pipeline for one transaction
type ScoreTransactionUseCase struct {
	deps    Dependencies
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     fraud.Clock
}

// Option configures the use case
type Option func(*ScoreTransactionUseCase)

// WithClock pins the processing timestamps
func WithClock(now fraud.Clock) Option {
	return func(uc *ScoreTransactionUseCase) { uc.now = now }
}

// WithMetrics records decisions and failures
func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *ScoreTransactionUseCase) { uc.metrics = m }
}

// NewScoreTransactionUseCase creates the scoring use case
func NewScoreTransactionUseCase(deps Dependencies, cfg Config, log *zap.Logger, opts ...Option) *ScoreTransactionUseCase {
	uc := &ScoreTransactionUseCase{
		deps:   deps,
		cfg:    cfg,
		logger: logger.OrNop(log).Named("scoring"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute scores the transaction. It either returns a decision or an error;
// a failure never turns into an approval.
func (uc *ScoreTransactionUseCase) Execute(ctx context.Context, tx *transaction.Transaction) (*fraud.FraudDecision, error) {
	if tx == nil {
		return nil, fraud.ErrMissingTransaction
	}
	start := uc.now()

	if uc.cfg.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.AnalysisTimeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "scoring.Execute", trace.WithAttributes(
		attribute.String("transaction.id", tx.ID.String()),
		attribute.String("user.id", tx.UserID.String()),
	))
	defer span.End()

	// 1. Hard block
	blocked, err := uc.deps.Rules.ShouldBlock(ctx, tx)
	if err != nil {
		return nil, uc.fail(span, tx, "block_check", err)
	}
	if blocked {
		return uc.block(ctx, span, tx, start), nil
	}

	// 2. Context
	profile, err := uc.profile(ctx, tx)
	if err != nil {
		return nil, uc.fail(span, tx, "profile", err)
	}
	if err := checkContext(ctx); err != nil {
		return nil, uc.fail(span, tx, "analysis", err)
	}
	snapshot := uc.deps.Analyzer.Analyze(ctx, tx, profile)

	// 3. Prediction
	ensemble := uc.deps.Predictor.Predict(ctx, tx, profile, snapshot)
	breakdown := uc.deps.Risk.ComputeAll(ctx, tx, profile)
	if err := checkContext(ctx); err != nil {
		return nil, uc.fail(span, tx, "prediction", err)
	}
	violations, err := uc.deps.Rules.Evaluate(ctx, tx, profile)
	if err != nil {
		return nil, uc.fail(span, tx, "rules", err)
	}

	// 4. External signal
	signal, err := uc.deps.Signal.Score(ctx, tx)
	if err != nil {
		if !errors.Is(err, fraud.ErrSignalUnavailable) {
			err = fmt.Errorf("%w: %w", fraud.ErrSignalUnavailable, err)
		}
		return nil, uc.fail(span, tx, "signal", err)
	}
	probability := fraud.Clamp01(uc.cfg.EnsembleBlendWeight*ensemble + uc.cfg.ExternalBlendWeight*signal.Probability)

	// 5. Decision
	fraudulent := probability > uc.cfg.Thresholds.Decline
	review, err := uc.deps.Rules.RequiresManualReview(ctx, tx, probability)
	if err != nil {
		return nil, uc.fail(span, tx, "review", err)
	}

	outcome := fraud.DecisionApproved
	if fraudulent {
		outcome = fraud.DecisionDeclined
	}
	decision := fraud.NewFraudDecision(tx, outcome, probability, uc.now())
	decision.IsFraudulent = fraudulent
	decision.ReviewStatus = fraud.ReviewAuto
	if review {
		decision.ReviewStatus = fraud.ReviewManual
	}

	// 6. Risk factors
	for k, v := range breakdown {
		decision.RiskFactors[k] = v
	}
	decision.RiskFactors[fraud.FactorEnsemble] = ensemble
	decision.RiskFactors[fraud.FactorExternalSignal] = signal.Probability
	decision.RiskFactors[fraud.FactorBehavioral] = behavioralRisk(snapshot)
	decision.RiskFactors[fraud.FactorRuleViolations] = float64(len(violations))

	reasons := mergeReasons(snapshot, violations)
	decision.Reason = reasonFor(fraudulent, review, reasons)

	// 7. Side effects
	if fraudulent || review {
		uc.alert(ctx, tx, decision, reasons)
	}
	if err := tx.ApplyScore(decision.TransactionStatus(), probability, fraudulent, decision.ProcessedAt); err != nil {
		return nil, uc.fail(span, tx, "persist", fmt.Errorf("%w: %w", fraud.ErrPersistenceFailed, err))
	}
	if err := uc.deps.Sink.Save(ctx, tx); err != nil {
		return nil, uc.fail(span, tx, "persist", fmt.Errorf("%w: %w", fraud.ErrPersistenceFailed, err))
	}

	uc.finish(ctx, span, decision, start)
	return decision, nil
}

// Decision returns the recorded decision for a transaction
func (uc *ScoreTransactionUseCase) Decision(ctx context.Context, transactionID uuid.UUID) (*fraud.FraudDecision, error) {
	if uc.deps.Decisions == nil {
		return nil, fraud.ErrDecisionNotFound
	}
	return uc.deps.Decisions.GetByTransactionID(ctx, transactionID)
}

// block builds the terminal BLOCKED decision. Nothing else runs and the
// transaction is not persisted.
func (uc *ScoreTransactionUseCase) block(ctx context.Context, span trace.Span, tx *transaction.Transaction, start time.Time) *fraud.FraudDecision {
	decision := fraud.NewFraudDecision(tx, fraud.DecisionBlocked, 1.0, uc.now())
	decision.IsFraudulent = true
	decision.ReviewStatus = fraud.ReviewBlocked
	decision.Reason = reasonBlocked

	uc.finish(ctx, span, decision, start)
	return decision
}

func (uc *ScoreTransactionUseCase) profile(ctx context.Context, tx *transaction.Transaction) (*fraud.UserProfile, error) {
	profile, err := uc.deps.Profiles.GetByUserID(ctx, tx.UserID)
	if errors.Is(err, fraud.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fraud.ErrProfileLookupFailed, err)
	}
	return profile, nil
}

func (uc *ScoreTransactionUseCase) alert(ctx context.Context, tx *transaction.Transaction, decision *fraud.FraudDecision, reasons []string) {
	alertType := fraud.AlertManualReview
	if decision.IsFraudulent {
		alertType = fraud.AlertHighRisk
	}
	alert := &fraud.Alert{
		ID:            uuid.New(),
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Amount:        tx.Amount,
		Probability:   decision.Probability,
		Type:          alertType,
		Severity:      fraud.SeverityFor(decision.Probability),
		Reasons:       reasons,
		CreatedAt:     decision.ProcessedAt,
	}
	if err := uc.deps.Alerts.Publish(ctx, alert); err != nil {
		uc.logger.Warn("failed to publish fraud alert",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("alert_type", string(alertType)),
			zap.Error(err),
		)
	}
}

func (uc *ScoreTransactionUseCase) finish(ctx context.Context, span trace.Span, decision *fraud.FraudDecision, start time.Time) {
	took := uc.now().Sub(start)
	decision.LatencyMs = took.Milliseconds()

	if uc.deps.Decisions != nil {
		if err := uc.deps.Decisions.Create(ctx, decision); err != nil {
			uc.logger.Warn("failed to record decision",
				zap.String("transaction_id", decision.TransactionID.String()),
				zap.Error(err),
			)
		}
	}

	uc.metrics.ObserveDecision(string(decision.Decision), string(decision.ReviewStatus), decision.Probability, took)
	span.SetAttributes(
		attribute.Float64("fraud.probability", decision.Probability),
		attribute.String("fraud.decision", string(decision.Decision)),
		attribute.String("fraud.review_status", string(decision.ReviewStatus)),
	)
	uc.logger.Info("transaction scored",
		zap.String("transaction_id", decision.TransactionID.String()),
		zap.Float64("fraud_probability", decision.Probability),
		zap.String("decision", string(decision.Decision)),
		zap.String("review_status", string(decision.ReviewStatus)),
		zap.Duration("duration", took),
	)
}

func (uc *ScoreTransactionUseCase) fail(span trace.Span, tx *transaction.Transaction, stage string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	uc.metrics.ScoringError(stage)
	uc.logger.Error("scoring failed",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("stage", stage),
		zap.Error(err),
	)
	return fmt.Errorf("%s: %w", stage, err)
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", fraud.ErrAnalysisTimeout, err)
		}
		return err
	}
	return nil
}

func behavioralRisk(snapshot *fraud.BehavioralSnapshot) float64 {
	if snapshot == nil {
		return 0
	}
	return float64(snapshot.RiskScore) / 100
}

// mergeReasons is the union of anomaly flags and violation codes, flags first
func mergeReasons(snapshot *fraud.BehavioralSnapshot, violations []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(items []string) {
		for _, s := range items {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	if snapshot != nil {
		add(snapshot.AnomalyFlags)
	}
	add(violations)
	return out
}

func reasonFor(fraudulent, review bool, reasons []string) string {
	var base string
	switch {
	case fraudulent:
		base = reasonHighRisk
	case review:
		base = reasonReview
	default:
		return reasonLowRisk
	}
	if len(reasons) == 0 {
		return base
	}
	return base + ": " + strings.Join(reasons, ", ")
}
