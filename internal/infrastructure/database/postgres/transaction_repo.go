package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
)

// TransactionModel is the database model for transactions
type TransactionModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID       `gorm:"type:uuid;index:idx_tx_user_time,priority:1;not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Currency       string          `gorm:"type:varchar(3);not null"`
	Timestamp      time.Time       `gorm:"index:idx_tx_user_time,priority:2;index;not null"`
	PaymentGateway string          `gorm:"type:varchar(50)"`
	IPAddress      string          `gorm:"type:varchar(45)"`
	DeviceID       string          `gorm:"type:varchar(100)"`
	Country        string          `gorm:"type:varchar(2)"`
	DeviceType     string          `gorm:"type:varchar(30)"`
	Browser        string          `gorm:"type:varchar(50)"`
	OS             string          `gorm:"type:varchar(50)"`
	Status         string          `gorm:"type:varchar(20);index;not null"`
	FraudScore     *float64
	IsFraudulent   bool `gorm:"not null"`
	ScoredAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name for transactions
func (TransactionModel) TableName() string {
	return "transactions"
}

// TransactionRepository implements transaction.Repository
type TransactionRepository struct {
	db  *gorm.DB
	now fraud.Clock
}

// NewTransactionRepository creates a new transaction repository. A nil clock means time.Now.
func NewTransactionRepository(client *Client, now fraud.Clock) *TransactionRepository {
	if now == nil {
		now = time.Now
	}
	return &TransactionRepository{db: client.DB(), now: now}
}

// Save inserts the transaction or overwrites its scoring outcome
func (r *TransactionRepository) Save(ctx context.Context, tx *transaction.Transaction) error {
	model := transactionToModel(tx)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "fraud_score", "is_fraudulent", "scored_at", "updated_at"}),
		}).
		Create(model).Error
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	var model TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, transaction.ErrTransactionNotFound
		}
		return nil, err
	}
	return modelToTransaction(&model), nil
}

func (r *TransactionRepository) GetUserTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*transaction.Transaction, error) {
	var models []TransactionModel
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToTransactions(models), nil
}

func (r *TransactionRepository) GetRecentTransactions(ctx context.Context, window time.Duration) ([]*transaction.Transaction, error) {
	var models []TransactionModel
	if err := r.db.WithContext(ctx).
		Where("timestamp >= ?", r.now().Add(-window)).
		Order("timestamp DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToTransactions(models), nil
}

func (r *TransactionRepository) GetUserTransactionVolume(ctx context.Context, userID uuid.UUID, window time.Duration) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	row := r.db.WithContext(ctx).
		Model(&TransactionModel{}).
		Select("SUM(amount)").
		Where("user_id = ? AND timestamp >= ?", userID, r.now().Add(-window)).
		Row()
	if err := row.Scan(&sum); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("failed to sum volume: %w", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *TransactionRepository) GetTransactionsBetween(ctx context.Context, start, end time.Time) ([]*transaction.Transaction, error) {
	var models []TransactionModel
	if err := r.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Order("timestamp ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToTransactions(models), nil
}

func transactionToModel(tx *transaction.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:             tx.ID,
		UserID:         tx.UserID,
		Amount:         tx.Amount,
		Currency:       tx.Currency,
		Timestamp:      tx.Timestamp,
		PaymentGateway: tx.PaymentGateway,
		IPAddress:      tx.IPAddress,
		DeviceID:       tx.DeviceID,
		Country:        tx.Country,
		DeviceType:     tx.Device.DeviceType,
		Browser:        tx.Device.Browser,
		OS:             tx.Device.OS,
		Status:         string(tx.Status),
		FraudScore:     tx.FraudScore,
		IsFraudulent:   tx.IsFraudulent,
		ScoredAt:       tx.ScoredAt,
	}
}

func modelToTransaction(m *TransactionModel) *transaction.Transaction {
	return &transaction.Transaction{
		ID:             m.ID,
		UserID:         m.UserID,
		Amount:         m.Amount,
		Currency:       m.Currency,
		Timestamp:      m.Timestamp,
		PaymentGateway: m.PaymentGateway,
		IPAddress:      m.IPAddress,
		DeviceID:       m.DeviceID,
		Country:        m.Country,
		Device: transaction.DeviceInfo{
			DeviceType: m.DeviceType,
			Browser:    m.Browser,
			OS:         m.OS,
		},
		Status:       transaction.TransactionStatus(m.Status),
		FraudScore:   m.FraudScore,
		IsFraudulent: m.IsFraudulent,
		ScoredAt:     m.ScoredAt,
	}
}

func modelsToTransactions(models []TransactionModel) []*transaction.Transaction {
	out := make([]*transaction.Transaction, len(models))
	for i := range models {
		out[i] = modelToTransaction(&models[i])
	}
	return out
}
