package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
	"fraud-scoring-service/internal/pkg/logger"
)

const (
	historyLimit       = 100
	duplicateWindow    = 5 * time.Minute
	countryWindow      = 24 * time.Hour
	maxCountriesPerDay = 5
)

var (
	suspiciousNightAmount = decimal.NewFromInt(5000)

	tracer = otel.Tracer("fraud-scoring-service/rules")
)

// Config holds the tunable rule limits
type Config struct {
	BlockedCountries       []string
	HighAmountThreshold    decimal.Decimal
	MaxTransactionsPerHour int
	Thresholds             fraud.DecisionThresholds
}

// DefaultConfig returns the production rule limits
func DefaultConfig() Config {
	return Config{
		BlockedCountries:       []string{"KP", "IR", "SY"},
		HighAmountThreshold:    decimal.NewFromInt(10000),
		MaxTransactionsPerHour: 15,
		Thresholds:             fraud.DefaultDecisionThresholds(),
	}
}

// evaluation is the data every rule sees
type evaluation struct {
	tx      *transaction.Transaction
	profile *fraud.UserProfile
	history []*transaction.Transaction
	now     time.Time
}

// rule reports whether the transaction violates it
type rule struct {
	code  string
	check func(e *evaluation) bool
}

// Engine implements fraud.RuleEngine
type Engine struct {
	history  transaction.HistoryRepository
	profiles fraud.ProfileRepository
	cfg      Config
	blocked  map[string]bool
	rules    []rule
	logger   *zap.Logger
	now      fraud.Clock
}

// Option configures an Engine
type Option func(*Engine)

// WithClock pins the engine's notion of now
func WithClock(now fraud.Clock) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a rule engine. profiles may be nil, in which case the
// block check cannot see the blacklist.
func NewEngine(history transaction.HistoryRepository, profiles fraud.ProfileRepository, cfg Config, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		history:  history,
		profiles: profiles,
		cfg:      cfg,
		blocked:  make(map[string]bool, len(cfg.BlockedCountries)),
		logger:   logger.OrNop(log).Named("rules"),
		now:      time.Now,
	}
	for _, c := range cfg.BlockedCountries {
		e.blocked[c] = true
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rules = []rule{
		{fraud.ViolationBlockedCountry, e.blockedCountry},
		{fraud.ViolationHighAmount, e.highAmount},
		{fraud.ViolationVelocityExceeded, e.velocityExceeded},
		{fraud.ViolationDuplicateTransaction, duplicateTransaction},
		{fraud.ViolationBlacklistedUser, blacklistedUser},
		{fraud.ViolationSuspiciousTimeAmount, suspiciousTimeAmount},
		{fraud.ViolationMultipleCountries, multipleCountries},
	}
	return e
}

// Evaluate runs every rule and returns the violation codes in rule order
func (e *Engine) Evaluate(ctx context.Context, tx *transaction.Transaction, profile *fraud.UserProfile) ([]string, error) {
	ctx, span := tracer.Start(ctx, "rules.Evaluate")
	defer span.End()

	if tx == nil {
		return nil, fraud.ErrMissingTransaction
	}

	history, err := e.history.GetUserTransactions(ctx, tx.UserID, historyLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history lookup failed")
		return nil, fmt.Errorf("%w: %w", fraud.ErrRuleEvaluationFailed, err)
	}

	ev := &evaluation{tx: tx, profile: profile, history: history, now: e.now()}
	violations := make([]string, 0)
	for _, r := range e.rules {
		if r.check(ev) {
			violations = append(violations, r.code)
		}
	}

	span.SetAttributes(attribute.StringSlice("rules.violations", violations))
	if len(violations) > 0 {
		e.logger.Debug("rule violations",
			zap.String("transaction_id", tx.ID.String()),
			zap.Strings("violations", violations),
		)
	}
	return violations, nil
}

// ShouldBlock is true when a blocking violation fires
func (e *Engine) ShouldBlock(ctx context.Context, tx *transaction.Transaction) (bool, error) {
	profile, err := e.lookupProfile(ctx, tx)
	if err != nil {
		return false, err
	}
	violations, err := e.Evaluate(ctx, tx, profile)
	if err != nil {
		return false, err
	}
	return fraud.IsBlocking(violations), nil
}

// RequiresManualReview is true inside the review band or when a
// review-triggering violation fires
func (e *Engine) RequiresManualReview(ctx context.Context, tx *transaction.Transaction, probability float64) (bool, error) {
	if e.cfg.Thresholds.InReviewBand(probability) {
		return true, nil
	}
	violations, err := e.Evaluate(ctx, tx, nil)
	if err != nil {
		return false, err
	}
	return fraud.NeedsReview(violations), nil
}

func (e *Engine) lookupProfile(ctx context.Context, tx *transaction.Transaction) (*fraud.UserProfile, error) {
	if e.profiles == nil || tx == nil {
		return nil, nil
	}
	profile, err := e.profiles.GetByUserID(ctx, tx.UserID)
	if errors.Is(err, fraud.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fraud.ErrRuleEvaluationFailed, err)
	}
	return profile, nil
}

// Rules

func (e *Engine) blockedCountry(ev *evaluation) bool {
	return e.blocked[ev.tx.Country]
}

func (e *Engine) highAmount(ev *evaluation) bool {
	return ev.tx.Amount.GreaterThan(e.cfg.HighAmountThreshold)
}

func (e *Engine) velocityExceeded(ev *evaluation) bool {
	hourAgo := ev.now.Add(-time.Hour)
	count := 0
	for _, h := range ev.history {
		if h.Timestamp.After(hourAgo) {
			count++
		}
	}
	return count > e.cfg.MaxTransactionsPerHour
}

func duplicateTransaction(ev *evaluation) bool {
	since := ev.now.Add(-duplicateWindow)
	for _, h := range ev.history {
		if h.ID != ev.tx.ID && h.Amount.Equal(ev.tx.Amount) && h.Timestamp.After(since) {
			return true
		}
	}
	return false
}

func blacklistedUser(ev *evaluation) bool {
	return ev.profile != nil && ev.profile.IsBlacklisted
}

func suspiciousTimeAmount(ev *evaluation) bool {
	hour := ev.tx.Timestamp.Hour()
	return hour >= 2 && hour <= 4 && ev.tx.Amount.GreaterThan(suspiciousNightAmount)
}

func multipleCountries(ev *evaluation) bool {
	since := ev.now.Add(-countryWindow)
	countries := make(map[string]struct{})
	for _, h := range ev.history {
		if h.Country != "" && h.Timestamp.After(since) {
			countries[h.Country] = struct{}{}
		}
	}
	return len(countries) > maxCountriesPerDay
}
