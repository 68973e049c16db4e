package behavior

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
	"fraud-scoring-service/internal/pkg/logger"
)

const (
	historyLimit = 1000

	velocityHourlyLimit = 10
	velocityDailyLimit  = 50
	uniqueDeviceLimit   = 5
	uniqueIPLimit       = 5

	// unusual amount is this many times the profile average
	unusualAmountFactor = 3

	flagWeight = 10
)

var tracer = otel.Tracer("fraud-scoring-service/behavior")

// Analyzer builds behavioral snapshots from transaction history and geolocation
type Analyzer struct {
	history transaction.HistoryRepository
	geo     fraud.GeoLocator
	logger  *zap.Logger
	now     fraud.Clock
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithClock pins the analyzer's notion of now
func WithClock(now fraud.Clock) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an analyzer. geo may be nil, in which case every
// snapshot carries an empty location.
func NewAnalyzer(history transaction.HistoryRepository, geo fraud.GeoLocator, log *zap.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		history: history,
		geo:     geo,
		logger:  logger.OrNop(log).Named("behavior"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze never fails. Sub-computation failures are logged and leave defaults.
func (a *Analyzer) Analyze(ctx context.Context, tx *transaction.Transaction, profile *fraud.UserProfile) *fraud.BehavioralSnapshot {
	ctx, span := tracer.Start(ctx, "behavior.Analyze")
	defer span.End()

	snapshot := &fraud.BehavioralSnapshot{
		Device: fraud.DeviceFingerprint{
			DeviceID:   tx.DeviceID,
			DeviceType: tx.Device.DeviceType,
			Browser:    tx.Device.Browser,
			OS:         tx.Device.OS,
		},
		AnomalyFlags: []string{},
	}

	snapshot.Geo = a.lookupGeo(ctx, tx)

	velocity, err := a.velocity(ctx, tx)
	if err != nil {
		a.logger.Warn("velocity analysis failed",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err),
		)
		velocity = &fraud.VelocityMetrics{}
	}
	snapshot.Velocity = velocity

	if profile != nil {
		snapshot.AnomalyFlags = anomalyFlags(tx, profile, velocity, snapshot.Geo)
	}

	geoRisk := 0
	if snapshot.Geo != nil {
		geoRisk = snapshot.Geo.RiskScore
	}
	snapshot.RiskScore = min(100, flagWeight*len(snapshot.AnomalyFlags)+geoRisk+velocity.VelocityScore)

	span.SetAttributes(
		attribute.Int("behavior.risk_score", snapshot.RiskScore),
		attribute.StringSlice("behavior.anomaly_flags", snapshot.AnomalyFlags),
	)
	return snapshot
}

// lookupGeo returns nil when the lookup fails
func (a *Analyzer) lookupGeo(ctx context.Context, tx *transaction.Transaction) (loc *fraud.GeoLocation) {
	if a.geo == nil {
		return &fraud.GeoLocation{}
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("geolocation lookup panicked",
				zap.String("transaction_id", tx.ID.String()),
				zap.Any("panic", r),
			)
			loc = nil
		}
	}()

	loc, err := a.geo.Lookup(ctx, tx.IPAddress)
	if err != nil {
		a.logger.Warn("geolocation lookup failed",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("ip_address", tx.IPAddress),
			zap.Error(err),
		)
		return nil
	}
	return loc
}

// velocity partitions the user's recent history into trailing windows
func (a *Analyzer) velocity(ctx context.Context, tx *transaction.Transaction) (m *fraud.VelocityMetrics, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("velocity analysis panicked: %v", r)
		}
	}()

	history, err := a.history.GetUserTransactions(ctx, tx.UserID, historyLimit)
	if err != nil {
		return nil, err
	}
	return ComputeVelocity(transaction.Excluding(history, tx.ID), a.now()), nil
}

// ComputeVelocity derives velocity metrics for windows anchored at now
func ComputeVelocity(history []*transaction.Transaction, now time.Time) *fraud.VelocityMetrics {
	hourAgo := now.Add(-time.Hour)
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	m := &fraud.VelocityMetrics{
		AmountLast1Hour:   decimal.Zero,
		AmountLast24Hours: decimal.Zero,
		AmountLast7Days:   decimal.Zero,
	}
	devices := make(map[string]struct{})
	ips := make(map[string]struct{})

	for _, h := range history {
		ts := h.Timestamp
		if !ts.Before(hourAgo) {
			m.TransactionsLast1Hour++
			m.AmountLast1Hour = m.AmountLast1Hour.Add(h.Amount)
		}
		if !ts.Before(dayAgo) {
			m.TransactionsLast24Hours++
			m.AmountLast24Hours = m.AmountLast24Hours.Add(h.Amount)
			if h.DeviceID != "" {
				devices[h.DeviceID] = struct{}{}
			}
			if h.IPAddress != "" {
				ips[h.IPAddress] = struct{}{}
			}
		}
		if !ts.Before(weekAgo) {
			m.TransactionsLast7Days++
			m.AmountLast7Days = m.AmountLast7Days.Add(h.Amount)
		}
	}
	m.UniqueDevices24Hours = len(devices)
	m.UniqueIPs24Hours = len(ips)
	m.VelocityScore = velocityScore(m)
	return m
}

func velocityScore(m *fraud.VelocityMetrics) int {
	score := 0
	if m.TransactionsLast1Hour > velocityHourlyLimit {
		score += 20
	}
	if m.TransactionsLast24Hours > velocityDailyLimit {
		score += 15
	}
	if m.UniqueDevices24Hours > uniqueDeviceLimit {
		score += 15
	}
	if m.UniqueIPs24Hours > uniqueIPLimit {
		score += 15
	}
	return min(score, 100)
}

func anomalyFlags(tx *transaction.Transaction, profile *fraud.UserProfile, v *fraud.VelocityMetrics, geo *fraud.GeoLocation) []string {
	flags := []string{}
	if v.TransactionsLast1Hour > velocityHourlyLimit {
		flags = append(flags, fraud.FlagHighVelocity1H)
	}
	if v.TransactionsLast24Hours > velocityDailyLimit {
		flags = append(flags, fraud.FlagHighVelocity24H)
	}
	if v.UniqueDevices24Hours > uniqueDeviceLimit {
		flags = append(flags, fraud.FlagMultipleDevices)
	}
	if v.UniqueIPs24Hours > uniqueIPLimit {
		flags = append(flags, fraud.FlagMultipleIPs)
	}
	if tx.Amount.GreaterThan(profile.AverageAmount.Mul(decimal.NewFromInt(unusualAmountFactor))) {
		flags = append(flags, fraud.FlagUnusualAmount)
	}
	if geo != nil && geo.IsAnonymized() {
		flags = append(flags, fraud.FlagProxyVPNTor)
	}
	return flags
}
