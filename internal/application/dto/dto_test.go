package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-scoring-service/internal/application/scoring"
	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
)

func validRequest() ScoreTransactionRequest {
	return ScoreTransactionRequest{
		UserID:         uuid.NewString(),
		Amount:         decimal.NewFromInt(120),
		Currency:       "USD",
		PaymentGateway: "stripe",
		IPAddress:      "203.0.113.7",
		DeviceID:       "dev-1",
		Country:        "US",
		Device:         DeviceRequest{DeviceType: "mobile", Browser: "Safari", OS: "iOS"},
	}
}

func TestValidator_Struct(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		mutate func(r *ScoreTransactionRequest)
		field  string
	}{
		{"valid", func(r *ScoreTransactionRequest) {}, ""},
		{"missing user", func(r *ScoreTransactionRequest) { r.UserID = "" }, "user_id"},
		{"bad user uuid", func(r *ScoreTransactionRequest) { r.UserID = "nope" }, "user_id"},
		{"bad transaction uuid", func(r *ScoreTransactionRequest) { r.TransactionID = "123" }, "transaction_id"},
		{"bad currency", func(r *ScoreTransactionRequest) { r.Currency = "XXY" }, "currency"},
		{"bad ip", func(r *ScoreTransactionRequest) { r.IPAddress = "999.1.1.1" }, "ip_address"},
		{"bad country", func(r *ScoreTransactionRequest) { r.Country = "ZZ" }, "country"},
		{"bad device type", func(r *ScoreTransactionRequest) { r.Device.DeviceType = "fridge" }, "device.device_type"},
		{"empty optional fields", func(r *ScoreTransactionRequest) {
			r.IPAddress, r.Country, r.DeviceID, r.Device = "", "", "", DeviceRequest{}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.Struct(&req)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestValidator_Batch(t *testing.T) {
	v := NewValidator()

	err := v.Struct(&BatchScoreRequest{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "transactions")

	bad := validRequest()
	bad.UserID = ""
	good := bad
	good.UserID = uuid.NewString()

	err = v.Struct(&BatchScoreRequest{Transactions: []ScoreTransactionRequest{good, bad}})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "transactions[1].user_id")

	tooMany := make([]ScoreTransactionRequest, 101)
	for i := range tooMany {
		tooMany[i] = good
	}
	err = v.Struct(&BatchScoreRequest{Transactions: tooMany})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "max=100", verr.Fields["transactions"])
}

func TestScoreTransactionRequest_ToTransaction(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fills defaults", func(t *testing.T) {
		req := validRequest()
		req.Currency = "usd"
		tx, err := req.ToTransaction(now)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, tx.ID)
		assert.Equal(t, now, tx.Timestamp)
		assert.Equal(t, "USD", tx.Currency)
		assert.Equal(t, "US", tx.Country)
		assert.Equal(t, transaction.StatusPending, tx.Status)
		assert.Equal(t, "mobile", tx.Device.DeviceType)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(120)))
	})

	t.Run("keeps caller id and timestamp", func(t *testing.T) {
		req := validRequest()
		id := uuid.New()
		ts := now.Add(-time.Hour)
		req.TransactionID = id.String()
		req.Timestamp = &ts

		tx, err := req.ToTransaction(now)
		require.NoError(t, err)
		assert.Equal(t, id, tx.ID)
		assert.Equal(t, ts, tx.Timestamp)
	})

	t.Run("rejects out of range amounts", func(t *testing.T) {
		req := validRequest()
		req.Amount = decimal.Zero
		_, err := req.ToTransaction(now)
		assert.ErrorIs(t, err, transaction.ErrZeroAmount)

		req.Amount = decimal.NewFromInt(-5)
		_, err = req.ToTransaction(now)
		assert.ErrorIs(t, err, transaction.ErrNegativeAmount)

		req.Amount = decimal.NewFromInt(1_000_001)
		_, err = req.ToTransaction(now)
		assert.ErrorIs(t, err, ErrAmountTooLarge)
	})

	t.Run("rejects bad user id", func(t *testing.T) {
		req := validRequest()
		req.UserID = "x"
		_, err := req.ToTransaction(now)
		assert.ErrorIs(t, err, transaction.ErrInvalidUserID)
	})
}

func TestNewBatchScoreResponse(t *testing.T) {
	tx := transaction.NewTransaction(uuid.New(), decimal.NewFromInt(10), "USD", time.Now())
	decision := fraud.NewFraudDecision(tx, fraud.DecisionApproved, 0.123456, time.Now())
	decision.RiskFactors["velocity"] = 0.2

	resp := NewBatchScoreResponse([]scoring.BatchResult{
		{TransactionID: tx.ID, Decision: decision},
		{Err: fraud.ErrMissingTransaction},
	})

	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)

	require.NotNil(t, resp.Results[0].Decision)
	assert.Equal(t, "APPROVED", resp.Results[0].Decision.Decision)
	assert.Equal(t, "0.1235", resp.Results[0].Decision.Probability.String())
	assert.Equal(t, 0.2, resp.Results[0].Decision.RiskFactors["velocity"])

	assert.Nil(t, resp.Results[1].TransactionID)
	assert.Equal(t, 1, resp.Results[1].Index)
	assert.Equal(t, fraud.ErrMissingTransaction.Error(), resp.Results[1].Error)
}

func TestNewFraudDecisionResponse_ReviewFlags(t *testing.T) {
	tx := transaction.NewTransaction(uuid.New(), decimal.NewFromInt(10), "USD", time.Now())

	tests := []struct {
		name       string
		decision   fraud.DecisionType
		review     fraud.ReviewStatus
		wantBlock  bool
		wantReview bool
	}{
		{"approved", fraud.DecisionApproved, fraud.ReviewAuto, false, false},
		{"held for review", fraud.DecisionApproved, fraud.ReviewManual, false, true},
		{"blocked", fraud.DecisionBlocked, fraud.ReviewBlocked, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := fraud.NewFraudDecision(tx, tt.decision, 0.5, time.Now())
			d.ReviewStatus = tt.review

			resp := NewFraudDecisionResponse(d)
			assert.Equal(t, tt.wantBlock, resp.Blocked)
			assert.Equal(t, tt.wantReview, resp.RequiresReview)
		})
	}
}

func TestNewUserDecisionsResponse(t *testing.T) {
	user := uuid.New()
	tx := transaction.NewTransaction(user, decimal.NewFromInt(10), "USD", time.Now())
	page := &scoring.UserDecisionHistory{
		Decisions:          []*fraud.FraudDecision{fraud.NewFraudDecision(tx, fraud.DecisionDeclined, 0.9, time.Now())},
		BlockedLast24Hours: 2,
	}

	resp := NewUserDecisionsResponse(user, page, 20, 40)

	assert.Equal(t, user, resp.UserID)
	assert.Equal(t, int64(2), resp.BlockedLast24Hours)
	assert.Equal(t, 20, resp.Limit)
	assert.Equal(t, 40, resp.Offset)
	require.Len(t, resp.Decisions, 1)
	assert.Equal(t, "DECLINED", resp.Decisions[0].Decision)

	empty := NewUserDecisionsResponse(user, &scoring.UserDecisionHistory{}, 20, 0)
	assert.NotNil(t, empty.Decisions, "serialized as [] rather than null")
}
