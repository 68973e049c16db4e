package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fraud-scoring-service/internal/application/scoring"
	"fraud-scoring-service/internal/domain/fraud"
)

// FraudDecisionResponse is the API view of a scoring outcome
type FraudDecisionResponse struct {
	DecisionID    uuid.UUID `json:"decision_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`

	// Decision
	Decision     string          `json:"decision"` // APPROVED, DECLINED, BLOCKED
	ReviewStatus string          `json:"review_status"`
	Probability  decimal.Decimal `json:"fraud_probability"`
	IsFraudulent bool            `json:"is_fraudulent"`
	Reason       string          `json:"reason"`

	Blocked        bool `json:"blocked"`
	RequiresReview bool `json:"requires_review"`

	// Explanation
	RiskFactors map[string]float64 `json:"risk_factors"`

	// Performance
	LatencyMs   int64     `json:"latency_ms"`
	ProcessedAt time.Time `json:"processed_at"`
}

// NewFraudDecisionResponse converts a domain decision. Probability is rounded to 4 places.
func NewFraudDecisionResponse(d *fraud.FraudDecision) FraudDecisionResponse {
	factors := make(map[string]float64, len(d.RiskFactors))
	for k, v := range d.RiskFactors {
		factors[k] = v
	}
	return FraudDecisionResponse{
		DecisionID:     d.ID,
		TransactionID:  d.TransactionID,
		UserID:         d.UserID,
		Decision:       string(d.Decision),
		ReviewStatus:   string(d.ReviewStatus),
		Probability:    decimal.NewFromFloat(d.Probability).Round(4),
		IsFraudulent:   d.IsFraudulent,
		Reason:         d.Reason,
		Blocked:        d.ShouldBlock(),
		RequiresReview: d.RequiresReview(),
		RiskFactors:    factors,
		LatencyMs:      d.LatencyMs,
		ProcessedAt:    d.ProcessedAt,
	}
}

// BatchItemResponse carries either a decision or an error for one batch entry
type BatchItemResponse struct {
	Index         int                    `json:"index"`
	TransactionID *uuid.UUID             `json:"transaction_id,omitempty"`
	Decision      *FraudDecisionResponse `json:"decision,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// BatchScoreResponse is returned by POST /api/v1/fraud/score/batch
type BatchScoreResponse struct {
	Results   []BatchItemResponse `json:"results"`
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

// NewBatchScoreResponse keeps the input order of results
func NewBatchScoreResponse(results []scoring.BatchResult) BatchScoreResponse {
	resp := BatchScoreResponse{
		Results: make([]BatchItemResponse, 0, len(results)),
		Total:   len(results),
	}
	for i, r := range results {
		item := BatchItemResponse{Index: i}
		if r.TransactionID != uuid.Nil {
			id := r.TransactionID
			item.TransactionID = &id
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
			resp.Failed++
		} else if r.Decision != nil {
			d := NewFraudDecisionResponse(r.Decision)
			item.Decision = &d
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

// UserDecisionsResponse is returned by GET /api/v1/fraud/users/{userID}/decisions
type UserDecisionsResponse struct {
	UserID             uuid.UUID               `json:"user_id"`
	Decisions          []FraudDecisionResponse `json:"decisions"`
	BlockedLast24Hours int64                   `json:"blocked_last_24h"`
	Limit              int                     `json:"limit"`
	Offset             int                     `json:"offset"`
}

// NewUserDecisionsResponse converts one page of a user's decisions
func NewUserDecisionsResponse(userID uuid.UUID, page *scoring.UserDecisionHistory, limit, offset int) UserDecisionsResponse {
	resp := UserDecisionsResponse{
		UserID:             userID,
		Decisions:          make([]FraudDecisionResponse, 0, len(page.Decisions)),
		BlockedLast24Hours: page.BlockedLast24Hours,
		Limit:              limit,
		Offset:             offset,
	}
	for _, d := range page.Decisions {
		resp.Decisions = append(resp.Decisions, NewFraudDecisionResponse(d))
	}
	return resp
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}
