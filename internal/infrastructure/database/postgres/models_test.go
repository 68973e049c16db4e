package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
)

func TestTransactionModel_KeepsDeviceAndOutcome(t *testing.T) {
	tx := transaction.NewTransaction(uuid.New(), decimal.RequireFromString("99.95"), "EUR", time.Now().UTC())
	tx.Device = transaction.DeviceInfo{DeviceType: "mobile", Browser: "Safari", OS: "iOS"}
	require.NoError(t, tx.ApplyScore(transaction.StatusReview, 0.55, false, time.Now().UTC()))

	got := modelToTransaction(transactionToModel(tx))

	assert.Equal(t, tx.Device, got.Device)
	assert.Equal(t, transaction.StatusReview, got.Status)
	require.NotNil(t, got.FraudScore)
	assert.Equal(t, 0.55, *got.FraudScore)
	assert.True(t, got.Amount.Equal(tx.Amount))
}

func TestDecisionModel_RoundsProbability(t *testing.T) {
	tx := transaction.NewTransaction(uuid.New(), decimal.NewFromInt(10), "USD", time.Now())
	d := fraud.NewFraudDecision(tx, fraud.DecisionDeclined, 0.876543, time.Now())
	d.RiskFactors[fraud.FactorEnsemble] = 0.8

	m, err := decisionToModel(d)
	require.NoError(t, err)
	assert.Equal(t, "0.8765", m.Probability.String())

	back := modelToDecision(m)
	assert.Equal(t, 0.8, back.RiskFactors[fraud.FactorEnsemble])
	assert.Equal(t, fraud.DecisionDeclined, back.Decision)
}

func TestDecisionUpsert_ReplacesByTransaction(t *testing.T) {
	require.Equal(t, []clause.Column{{Name: "transaction_id"}}, decisionUpsert.Columns)

	updated := make(map[string]bool)
	for _, a := range decisionUpsert.DoUpdates {
		updated[a.Column.Name] = true
	}
	for _, col := range []string{"id", "decision", "probability", "review_status", "risk_factors", "processed_at"} {
		assert.True(t, updated[col], col)
	}
	assert.False(t, updated["transaction_id"])
	assert.False(t, updated["created_at"])
}

func TestAlertModel_HourlyAlertHasNoTransaction(t *testing.T) {
	a := &fraud.Alert{
		ID:        uuid.New(),
		Type:      fraud.AlertHourlyAnomaly,
		Severity:  fraud.SeverityHigh,
		Reasons:   []string{"volume spike"},
		CreatedAt: time.Now(),
	}

	m := alertToModel(a)
	assert.Nil(t, m.TransactionID)
	assert.Nil(t, m.UserID)

	back := modelToAlert(m)
	assert.Equal(t, uuid.Nil, back.TransactionID)
	assert.Equal(t, []string{"volume spike"}, back.Reasons)
}

func TestProfileModel_DecodesKnownSets(t *testing.T) {
	m := &UserProfileModel{
		UserID:           uuid.New(),
		KnownDeviceIDs:   `["d1","d2"]`,
		KnownIPAddresses: `not json`,
	}
	p := modelToProfile(m)
	assert.True(t, p.KnowsDevice("d2"))
	assert.Empty(t, p.KnownIPAddresses)
}
