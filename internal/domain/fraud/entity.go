package fraud

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fraud-scoring-service/internal/domain/transaction"
)

// DecisionType represents the fraud detection decision
type DecisionType string

const (
	DecisionApproved DecisionType = "APPROVED"
	DecisionDeclined DecisionType = "DECLINED"
	DecisionBlocked  DecisionType = "BLOCKED"
)

// ReviewStatus says whether a human needs to look at the decision
type ReviewStatus string

const (
	ReviewAuto    ReviewStatus = "AUTO"
	ReviewManual  ReviewStatus = "MANUAL_REVIEW"
	ReviewBlocked ReviewStatus = "BLOCKED"
)

// UserProfile is the per-user aggregate maintained outside the scorer.
// Scoring only reads it.
type UserProfile struct {
	UserID              uuid.UUID       `json:"user_id"`
	TotalTransactions   int             `json:"total_transactions"`
	AverageAmount       decimal.Decimal `json:"average_amount"`
	TotalSpent          decimal.Decimal `json:"total_spent"`
	KnownIPAddresses    []string        `json:"known_ip_addresses"`
	KnownDeviceIDs      []string        `json:"known_device_ids"`
	FirstTransactionAt  *time.Time      `json:"first_transaction_at,omitempty"`
	LastTransactionAt   *time.Time      `json:"last_transaction_at,omitempty"`
	SuspiciousFlagCount int             `json:"suspicious_flag_count"`
	ChargebackCount     int             `json:"chargeback_count"`
	IsBlacklisted       bool            `json:"is_blacklisted"`
}

// KnowsDevice reports whether the device has been used by this user before
func (p *UserProfile) KnowsDevice(deviceID string) bool {
	for _, d := range p.KnownDeviceIDs {
		if d == deviceID {
			return true
		}
	}
	return false
}

// GeoLocation is the resolved location of an IP address.
// The zero value is the valid "no geo data" result.
type GeoLocation struct {
	Country   string  `json:"country"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	ISP       string  `json:"isp"`
	IsProxy   bool    `json:"is_proxy"`
	IsVPN     bool    `json:"is_vpn"`
	IsTor     bool    `json:"is_tor"`
	RiskScore int     `json:"risk_score"` // 0-100
}

// IsAnonymized reports whether any anonymization flag is set
func (g *GeoLocation) IsAnonymized() bool {
	return g.IsProxy || g.IsVPN || g.IsTor
}

// DeviceFingerprint is a pass-through of the device fields on the transaction
type DeviceFingerprint struct {
	DeviceID   string `json:"device_id"`
	DeviceType string `json:"device_type"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
}

// VelocityMetrics counts a user's activity over trailing windows anchored at now
type VelocityMetrics struct {
	TransactionsLast1Hour   int             `json:"transactions_last_1_hour"`
	TransactionsLast24Hours int             `json:"transactions_last_24_hours"`
	TransactionsLast7Days   int             `json:"transactions_last_7_days"`
	AmountLast1Hour         decimal.Decimal `json:"amount_last_1_hour"`
	AmountLast24Hours       decimal.Decimal `json:"amount_last_24_hours"`
	AmountLast7Days         decimal.Decimal `json:"amount_last_7_days"`
	UniqueDevices24Hours    int             `json:"unique_devices_24_hours"`
	UniqueIPs24Hours        int             `json:"unique_ips_24_hours"`
	VelocityScore           int             `json:"velocity_score"` // 0-100
}

// BehavioralSnapshot is built fresh for every scoring call and never stored
type BehavioralSnapshot struct {
	Geo          *GeoLocation      `json:"geo,omitempty"`
	Device       DeviceFingerprint `json:"device"`
	Velocity     *VelocityMetrics  `json:"velocity,omitempty"`
	AnomalyFlags []string          `json:"anomaly_flags"`
	RiskScore    int               `json:"risk_score"` // 0-100
}

// HasFlag reports whether the snapshot carries the given anomaly flag
func (s *BehavioralSnapshot) HasFlag(flag string) bool {
	for _, f := range s.AnomalyFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// FraudDecision represents the outcome of fraud analysis on a transaction.
// It is terminal once returned.
type FraudDecision struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`

	Probability  float64            `json:"fraud_probability"` // 0.0 to 1.0
	IsFraudulent bool               `json:"is_fraudulent"`
	Decision     DecisionType       `json:"decision"`
	Reason       string             `json:"reason"`
	ReviewStatus ReviewStatus       `json:"review_status"`
	RiskFactors  map[string]float64 `json:"risk_factors"`

	ProcessedAt time.Time `json:"processed_at"`
	LatencyMs   int64     `json:"latency_ms"` // how long scoring took
}

// NewFraudDecision creates a decision for the transaction
func NewFraudDecision(tx *transaction.Transaction, decision DecisionType, probability float64, processedAt time.Time) *FraudDecision {
	return &FraudDecision{
		ID:            uuid.New(),
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Decision:      decision,
		Probability:   probability,
		RiskFactors:   make(map[string]float64),
		ProcessedAt:   processedAt,
	}
}

// ShouldBlock determines if this decision blocks the transaction
func (fd *FraudDecision) ShouldBlock() bool {
	return fd.Decision == DecisionBlocked
}

// RequiresReview determines if this decision requires manual review
func (fd *FraudDecision) RequiresReview() bool {
	return fd.ReviewStatus == ReviewManual
}

// TransactionStatus maps the decision onto the transaction lifecycle
func (fd *FraudDecision) TransactionStatus() transaction.TransactionStatus {
	switch {
	case fd.Decision == DecisionBlocked:
		return transaction.StatusBlocked
	case fd.Decision == DecisionDeclined:
		return transaction.StatusDeclined
	case fd.ReviewStatus == ReviewManual:
		return transaction.StatusReview
	default:
		return transaction.StatusApproved
	}
}

// AlertSeverity grades how urgently an alert needs attention
type AlertSeverity string

const (
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// AlertType classifies why an alert was raised
type AlertType string

const (
	AlertHighRisk      AlertType = "HIGH_RISK_TRANSACTION"
	AlertManualReview  AlertType = "MANUAL_REVIEW_REQUIRED"
	AlertHourlyAnomaly AlertType = "HOURLY_ANOMALY"
)

// Alert is handed to the alert sink when a decision is fraudulent or needs review
type Alert struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Probability   float64         `json:"fraud_probability"`
	Type          AlertType       `json:"alert_type"`
	Severity      AlertSeverity   `json:"severity"`
	Reasons       []string        `json:"reasons"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SeverityFor grades a fraud probability
func SeverityFor(probability float64) AlertSeverity {
	switch {
	case probability > 0.9:
		return SeverityCritical
	case probability > 0.7:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// ExternalSignal is the response of the external fraud-signal provider
type ExternalSignal struct {
	Probability float64  `json:"probability"`
	Status      string   `json:"status"`
	Reasons     []string `json:"reasons"`
	Raw         []byte   `json:"-"`
}
