package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fraud-scoring-service/internal/domain/transaction"
)

// MaxAmount is the largest amount accepted for scoring
var MaxAmount = decimal.NewFromInt(1_000_000)

// ErrAmountTooLarge is returned for amounts above MaxAmount
var ErrAmountTooLarge = errors.New("transaction amount cannot exceed 1,000,000")

// ScoreTransactionRequest is the body of POST /api/v1/fraud/score
type ScoreTransactionRequest struct {
	TransactionID  string          `json:"transaction_id" validate:"omitempty,uuid"`
	UserID         string          `json:"user_id" validate:"required,uuid"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" validate:"required,iso4217"`
	Timestamp      *time.Time      `json:"timestamp,omitempty"`
	PaymentGateway string          `json:"payment_gateway" validate:"max=64"`
	IPAddress      string          `json:"ip_address" validate:"omitempty,ip"`
	DeviceID       string          `json:"device_id" validate:"max=128"`
	Country        string          `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Device         DeviceRequest   `json:"device"`
}

// DeviceRequest carries the optional client fingerprint
type DeviceRequest struct {
	DeviceType string `json:"device_type" validate:"omitempty,oneof=mobile desktop tablet"`
	Browser    string `json:"browser" validate:"max=64"`
	OS         string `json:"os" validate:"max=64"`
}

// BatchScoreRequest is the body of POST /api/v1/fraud/score/batch
type BatchScoreRequest struct {
	Transactions []ScoreTransactionRequest `json:"transactions" validate:"required,min=1,max=100,dive"`
}

// ToTransaction maps the request onto a pending transaction.
// A missing timestamp is filled with now; a missing id is generated.
func (r *ScoreTransactionRequest) ToTransaction(now time.Time) (*transaction.Transaction, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", transaction.ErrInvalidUserID, err)
	}

	ts := now
	if r.Timestamp != nil && !r.Timestamp.IsZero() {
		ts = r.Timestamp.UTC()
	}

	tx := transaction.NewTransaction(userID, r.Amount, strings.ToUpper(r.Currency), ts)
	if r.TransactionID != "" {
		id, err := uuid.Parse(r.TransactionID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", transaction.ErrInvalidTransactionID, err)
		}
		tx.ID = id
	}

	tx.PaymentGateway = r.PaymentGateway
	tx.IPAddress = r.IPAddress
	tx.DeviceID = r.DeviceID
	tx.Country = strings.ToUpper(r.Country)
	tx.Device = transaction.DeviceInfo{
		DeviceType: r.Device.DeviceType,
		Browser:    r.Device.Browser,
		OS:         r.Device.OS,
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}
	if tx.Amount.GreaterThan(MaxAmount) {
		return nil, ErrAmountTooLarge
	}
	return tx, nil
}
