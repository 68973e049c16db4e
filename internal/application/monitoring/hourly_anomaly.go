package monitoring

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
	"fraud-scoring-service/internal/infrastructure/metrics"
	"fraud-scoring-service/internal/pkg/logger"
)

const (
	volumeSpikeFactor  = 3.0
	amountSpikeFactor  = 2.0
	declineSpikeFactor = 2.0
	minDeclineRate     = 5.0  // percent
	gatewayDeclineRate = 30.0 // percent
	criticalFindings   = 3
)

// Config controls the scan cadence and baseline
type Config struct {
	Interval time.Duration
	Lookback time.Duration
}

// HourlyAnomalyScanner compares the last hour with a trailing baseline and
// raises a HOURLY_ANOMALY alert when traffic looks abnormal
type HourlyAnomalyScanner struct {
	history transaction.HistoryRepository
	alerts  fraud.AlertPublisher
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     fraud.Clock
}

// Option configures the scanner
type Option func(*HourlyAnomalyScanner)

func WithClock(now fraud.Clock) Option {
	return func(s *HourlyAnomalyScanner) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *HourlyAnomalyScanner) { s.metrics = m }
}

func NewHourlyAnomalyScanner(history transaction.HistoryRepository, alerts fraud.AlertPublisher, cfg Config, log *zap.Logger, opts ...Option) *HourlyAnomalyScanner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 30 * 24 * time.Hour
	}
	s := &HourlyAnomalyScanner{
		history: history,
		alerts:  alerts,
		cfg:     cfg,
		logger:  logger.OrNop(log).Named("hourly_anomaly"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans every interval until ctx is done. Failures are logged.
func (s *HourlyAnomalyScanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("hourly anomaly scan started", zap.Duration("interval", s.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("hourly anomaly scan stopped")
			return
		case <-ticker.C:
			if _, err := s.Scan(ctx); err != nil {
				s.logger.Error("hourly anomaly scan failed", zap.Error(err))
			}
		}
	}
}

// Scan runs one pass and returns the findings. An alert is published when
// there is at least one.
func (s *HourlyAnomalyScanner) Scan(ctx context.Context) ([]string, error) {
	now := s.now()
	lastHour := now.Add(-time.Hour)

	recent, err := s.history.GetTransactionsBetween(ctx, lastHour, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load last hour: %w", err)
	}
	if len(recent) == 0 {
		s.logger.Info("no transactions in the last hour")
		return nil, nil
	}
	baseline, err := s.history.GetTransactionsBetween(ctx, now.Add(-s.cfg.Lookback), lastHour)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline: %w", err)
	}

	findings := Detect(recent, baseline, s.cfg.Lookback)
	if len(findings) == 0 {
		s.logger.Info("no anomalies detected in the last hour", zap.Int("transactions", len(recent)))
		return nil, nil
	}

	s.metrics.AnomalyFindings(len(findings))
	s.logger.Warn("anomalies detected", zap.Strings("findings", findings))

	severity := fraud.SeverityHigh
	if len(findings) >= criticalFindings {
		severity = fraud.SeverityCritical
	}
	alert := &fraud.Alert{
		ID:        uuid.New(),
		Type:      fraud.AlertHourlyAnomaly,
		Severity:  severity,
		Reasons:   findings,
		CreatedAt: now,
	}
	if err := s.alerts.Publish(ctx, alert); err != nil {
		return findings, fmt.Errorf("failed to publish anomaly alert: %w", err)
	}
	return findings, nil
}

// Detect compares the last hour with the baseline period
func Detect(recent, baseline []*transaction.Transaction, lookback time.Duration) []string {
	var findings []string

	recentCount := float64(len(recent))
	hourlyMean := float64(len(baseline)) / lookback.Hours()
	if recentCount > hourlyMean*volumeSpikeFactor {
		findings = append(findings, fmt.Sprintf("Transaction volume spike: %d vs avg %.0f", len(recent), hourlyMean))
	}

	recentAvg := averageAmount(recent)
	baselineAvg := averageAmount(baseline)
	if baselineAvg.IsPositive() && recentAvg.GreaterThan(baselineAvg.Mul(decimal.NewFromFloat(amountSpikeFactor))) {
		findings = append(findings, fmt.Sprintf("Average transaction amount spike: %s vs %s",
			recentAvg.StringFixed(2), baselineAvg.StringFixed(2)))
	}

	recentRate := declineRate(recent)
	baselineRate := declineRate(baseline)
	if recentRate > baselineRate*declineSpikeFactor && recentRate > minDeclineRate {
		findings = append(findings, fmt.Sprintf("Decline rate spike: %.2f%% vs %.2f%%", recentRate, baselineRate))
	}

	byGateway := make(map[string][]*transaction.Transaction)
	for _, tx := range recent {
		byGateway[tx.PaymentGateway] = append(byGateway[tx.PaymentGateway], tx)
	}
	gateways := make([]string, 0, len(byGateway))
	for g := range byGateway {
		gateways = append(gateways, g)
	}
	sort.Strings(gateways)
	for _, g := range gateways {
		if rate := declineRate(byGateway[g]); rate > gatewayDeclineRate {
			name := g
			if name == "" {
				name = "unknown"
			}
			findings = append(findings, fmt.Sprintf("High decline rate on %s: %.2f%%", name, rate))
		}
	}

	return findings
}

func averageAmount(txs []*transaction.Transaction) decimal.Decimal {
	if len(txs) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Amount)
	}
	return sum.Div(decimal.NewFromInt(int64(len(txs))))
}

// declineRate is the percentage of declined transactions
func declineRate(txs []*transaction.Transaction) float64 {
	if len(txs) == 0 {
		return 0
	}
	declined := 0
	for _, tx := range txs {
		if tx.Status == transaction.StatusDeclined {
			declined++
		}
	}
	return float64(declined) * 100 / float64(len(txs))
}
