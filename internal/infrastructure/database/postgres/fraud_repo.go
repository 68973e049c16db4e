package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fraud-scoring-service/internal/domain/fraud"
)

// UserProfileModel is the database model for user profiles.
// Profiles are maintained by other services; scoring only reads them.
type UserProfileModel struct {
	UserID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TotalTransactions   int             `gorm:"not null"`
	AverageAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TotalSpent          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	KnownIPAddresses    string          `gorm:"type:jsonb"`
	KnownDeviceIDs      string          `gorm:"type:jsonb"`
	FirstTransactionAt  *time.Time
	LastTransactionAt   *time.Time
	SuspiciousFlagCount int  `gorm:"not null"`
	ChargebackCount     int  `gorm:"not null"`
	IsBlacklisted       bool `gorm:"index;not null"`
	UpdatedAt           time.Time
}

// TableName returns the table name for user profiles
func (UserProfileModel) TableName() string {
	return "user_profiles"
}

// FraudDecisionModel is the database model for fraud decisions
type FraudDecisionModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	UserID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	Decision      string          `gorm:"type:varchar(20);not null"`
	Probability   decimal.Decimal `gorm:"type:decimal(5,4);not null"`
	IsFraudulent  bool            `gorm:"not null"`
	Reason        string          `gorm:"type:text"`
	ReviewStatus  string          `gorm:"type:varchar(20);index;not null"`
	RiskFactors   string          `gorm:"type:jsonb"`
	ProcessedAt   time.Time       `gorm:"index;not null"`
	LatencyMs     int64           `gorm:"not null"`
	CreatedAt     time.Time
}

// TableName returns the table name for fraud decisions
func (FraudDecisionModel) TableName() string {
	return "fraud_decisions"
}

// AlertModel is the database model for published alerts
type AlertModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransactionID *uuid.UUID      `gorm:"type:uuid;index"`
	UserID        *uuid.UUID      `gorm:"type:uuid;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2)"`
	Probability   decimal.Decimal `gorm:"type:decimal(5,4)"`
	Type          string          `gorm:"type:varchar(40);index;not null"`
	Severity      string          `gorm:"type:varchar(20);not null"`
	Reasons       string          `gorm:"type:jsonb"`
	CreatedAt     time.Time       `gorm:"index;not null"`
}

// TableName returns the table name for alerts
func (AlertModel) TableName() string {
	return "fraud_alerts"
}

// ProfileRepository implements fraud.ProfileRepository
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(client *Client) *ProfileRepository {
	return &ProfileRepository{db: client.DB()}
}

// GetByUserID returns fraud.ErrProfileNotFound for a first-time user
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*fraud.UserProfile, error) {
	var model UserProfileModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fraud.ErrProfileNotFound
		}
		return nil, err
	}
	return modelToProfile(&model), nil
}

func modelToProfile(m *UserProfileModel) *fraud.UserProfile {
	var ips, devices []string
	_ = json.Unmarshal([]byte(m.KnownIPAddresses), &ips)
	_ = json.Unmarshal([]byte(m.KnownDeviceIDs), &devices)

	return &fraud.UserProfile{
		UserID:              m.UserID,
		TotalTransactions:   m.TotalTransactions,
		AverageAmount:       m.AverageAmount,
		TotalSpent:          m.TotalSpent,
		KnownIPAddresses:    ips,
		KnownDeviceIDs:      devices,
		FirstTransactionAt:  m.FirstTransactionAt,
		LastTransactionAt:   m.LastTransactionAt,
		SuspiciousFlagCount: m.SuspiciousFlagCount,
		ChargebackCount:     m.ChargebackCount,
		IsBlacklisted:       m.IsBlacklisted,
	}
}

// DecisionRepository implements fraud.DecisionRepository
type DecisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository creates a new decision repository
func NewDecisionRepository(client *Client) *DecisionRepository {
	return &DecisionRepository{db: client.DB()}
}

// decisionUpsert keeps one decision per transaction; re-scoring replaces it
var decisionUpsert = clause.OnConflict{
	Columns: []clause.Column{{Name: "transaction_id"}},
	DoUpdates: clause.AssignmentColumns([]string{
		"id", "user_id", "decision", "probability", "is_fraudulent", "reason",
		"review_status", "risk_factors", "processed_at", "latency_ms",
	}),
}

// Create stores a fraud decision, replacing an earlier one for the same transaction
func (r *DecisionRepository) Create(ctx context.Context, decision *fraud.FraudDecision) error {
	model, err := decisionToModel(decision)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(decisionUpsert).Create(model).Error
}

// GetByTransactionID retrieves decision for a transaction
func (r *DecisionRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*fraud.FraudDecision, error) {
	var model FraudDecisionModel
	if err := r.db.WithContext(ctx).First(&model, "transaction_id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fraud.ErrDecisionNotFound
		}
		return nil, err
	}
	return modelToDecision(&model), nil
}

// ListByUserID gets fraud decisions for a user
func (r *DecisionRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*fraud.FraudDecision, error) {
	var models []FraudDecisionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("processed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error; err != nil {
		return nil, err
	}

	decisions := make([]*fraud.FraudDecision, len(models))
	for i := range models {
		decisions[i] = modelToDecision(&models[i])
	}
	return decisions, nil
}

// GetBlockedCount counts how many times a user has been blocked
func (r *DecisionRepository) GetBlockedCount(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&FraudDecisionModel{}).
		Where("user_id = ? AND decision = ? AND processed_at >= ?", userID, string(fraud.DecisionBlocked), since).
		Count(&count).Error
	return count, err
}

func decisionToModel(d *fraud.FraudDecision) (*FraudDecisionModel, error) {
	factors, err := json.Marshal(d.RiskFactors)
	if err != nil {
		return nil, err
	}
	return &FraudDecisionModel{
		ID:            d.ID,
		TransactionID: d.TransactionID,
		UserID:        d.UserID,
		Decision:      string(d.Decision),
		Probability:   decimal.NewFromFloat(d.Probability).Round(4),
		IsFraudulent:  d.IsFraudulent,
		Reason:        d.Reason,
		ReviewStatus:  string(d.ReviewStatus),
		RiskFactors:   string(factors),
		ProcessedAt:   d.ProcessedAt,
		LatencyMs:     d.LatencyMs,
	}, nil
}

func modelToDecision(m *FraudDecisionModel) *fraud.FraudDecision {
	factors := make(map[string]float64)
	_ = json.Unmarshal([]byte(m.RiskFactors), &factors)

	return &fraud.FraudDecision{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		UserID:        m.UserID,
		Probability:   m.Probability.InexactFloat64(),
		IsFraudulent:  m.IsFraudulent,
		Decision:      fraud.DecisionType(m.Decision),
		Reason:        m.Reason,
		ReviewStatus:  fraud.ReviewStatus(m.ReviewStatus),
		RiskFactors:   factors,
		ProcessedAt:   m.ProcessedAt,
		LatencyMs:     m.LatencyMs,
	}
}

// AlertRepository implements fraud.AlertRepository
type AlertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(client *Client) *AlertRepository {
	return &AlertRepository{db: client.DB()}
}

func (r *AlertRepository) Create(ctx context.Context, alert *fraud.Alert) error {
	return r.db.WithContext(ctx).Create(alertToModel(alert)).Error
}

func (r *AlertRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]*fraud.Alert, error) {
	var models []AlertModel
	q := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	alerts := make([]*fraud.Alert, len(models))
	for i := range models {
		alerts[i] = modelToAlert(&models[i])
	}
	return alerts, nil
}

// hourly alerts carry no transaction or user, stored as NULL
func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func alertToModel(a *fraud.Alert) *AlertModel {
	reasons, _ := json.Marshal(a.Reasons)
	return &AlertModel{
		ID:            a.ID,
		TransactionID: optionalID(a.TransactionID),
		UserID:        optionalID(a.UserID),
		Amount:        a.Amount,
		Probability:   decimal.NewFromFloat(a.Probability).Round(4),
		Type:          string(a.Type),
		Severity:      string(a.Severity),
		Reasons:       string(reasons),
		CreatedAt:     a.CreatedAt,
	}
}

func modelToAlert(m *AlertModel) *fraud.Alert {
	var reasons []string
	_ = json.Unmarshal([]byte(m.Reasons), &reasons)

	a := &fraud.Alert{
		ID:          m.ID,
		Amount:      m.Amount,
		Probability: m.Probability.InexactFloat64(),
		Type:        fraud.AlertType(m.Type),
		Severity:    fraud.AlertSeverity(m.Severity),
		Reasons:     reasons,
		CreatedAt:   m.CreatedAt,
	}
	if m.TransactionID != nil {
		a.TransactionID = *m.TransactionID
	}
	if m.UserID != nil {
		a.UserID = *m.UserID
	}
	return a
}
