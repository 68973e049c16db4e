package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the current state of a transaction
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusDeclined TransactionStatus = "DECLINED"
	StatusBlocked  TransactionStatus = "BLOCKED"
	StatusReview   TransactionStatus = "MANUAL_REVIEW"
)

// DeviceInfo carries the browser/device fields supplied by the client.
// Nothing here is validated, it is passed through into the behavioral snapshot.
type DeviceInfo struct {
	DeviceType string `json:"device_type,omitempty"` // mobile, desktop, tablet
	Browser    string `json:"browser,omitempty"`
	OS         string `json:"os,omitempty"`
}

// Transaction represents a payment transaction flowing through the scoring pipeline.
// Identity and amount fields are fixed at ingress; Status, FraudScore and
// IsFraudulent are written exactly once by the scorer.
type Transaction struct {
	// Identity
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`

	// Transaction Details
	Amount         decimal.Decimal `json:"amount"` // decimal for financial precision
	Currency       string          `json:"currency"`
	Timestamp      time.Time       `json:"timestamp"`
	PaymentGateway string          `json:"payment_gateway"`

	// Context for Fraud Detection
	IPAddress string     `json:"ip_address"`
	DeviceID  string     `json:"device_id"`
	Country   string     `json:"country"` // ISO 3166-1 alpha-2
	Device    DeviceInfo `json:"device"`

	// Scoring outcome
	Status       TransactionStatus `json:"status"`
	FraudScore   *float64          `json:"fraud_score,omitempty"`
	IsFraudulent bool              `json:"is_fraudulent"`
	ScoredAt     *time.Time        `json:"scored_at,omitempty"`
}

// NewTransaction creates a pending transaction with a fresh identifier
func NewTransaction(userID uuid.UUID, amount decimal.Decimal, currency string, timestamp time.Time) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Currency:  currency,
		Timestamp: timestamp,
		Status:    StatusPending,
	}
}

// IsScored reports whether the scorer has already recorded an outcome
func (t *Transaction) IsScored() bool {
	return t.ScoredAt != nil
}

// ApplyScore records the scoring outcome on the transaction.
// It can only be applied once.
func (t *Transaction) ApplyScore(status TransactionStatus, probability float64, fraudulent bool, at time.Time) error {
	if t.IsScored() {
		return ErrTransactionAlreadyScored
	}
	switch status {
	case StatusApproved, StatusDeclined, StatusBlocked, StatusReview:
	default:
		return ErrInvalidStatusTransition
	}
	t.Status = status
	t.FraudScore = &probability
	t.IsFraudulent = fraudulent
	t.ScoredAt = &at
	return nil
}

// AmountFloat returns the amount as float64 for statistical work
func (t *Transaction) AmountFloat() float64 {
	return t.Amount.InexactFloat64()
}

// IsHighValue determines if this is a high-value transaction
func (t *Transaction) IsHighValue(threshold decimal.Decimal) bool {
	return t.Amount.GreaterThan(threshold)
}

// Age returns how long before now the transaction happened
func (t *Transaction) Age(now time.Time) time.Duration {
	return now.Sub(t.Timestamp)
}

// Validate performs basic validation on the transaction
func (t *Transaction) Validate() error {
	if t.ID == uuid.Nil {
		return ErrInvalidTransactionID
	}
	if t.UserID == uuid.Nil {
		return ErrInvalidUserID
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if t.Amount.IsZero() {
		return ErrZeroAmount
	}
	if t.Currency == "" {
		return ErrMissingCurrency
	}
	if t.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	return nil
}

// Excluding drops entries with the given ID. A transaction re-scored under
// the same ID would otherwise count against itself.
func Excluding(history []*Transaction, id uuid.UUID) []*Transaction {
	out := history[:0:0]
	for _, h := range history {
		if h.ID != id {
			out = append(out, h)
		}
	}
	return out
}
