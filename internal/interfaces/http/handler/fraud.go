package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/application/dto"
	"fraud-scoring-service/internal/application/scoring"
	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
	"fraud-scoring-service/internal/pkg/logger"
)

// maxBodyBytes caps request bodies; a full batch of 100 fits comfortably
const maxBodyBytes = 1 << 20

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Scorer is the subset of the scoring use case the handlers need
type Scorer interface {
	Execute(ctx context.Context, tx *transaction.Transaction) (*fraud.FraudDecision, error)
	ScoreBatch(ctx context.Context, txs []*transaction.Transaction) ([]scoring.BatchResult, error)
	Decision(ctx context.Context, transactionID uuid.UUID) (*fraud.FraudDecision, error)
	UserDecisions(ctx context.Context, userID uuid.UUID, limit, offset int) (*scoring.UserDecisionHistory, error)
}

// FraudHandler handles fraud scoring HTTP requests
type FraudHandler struct {
	scorer    Scorer
	validator *dto.Validator
	now       fraud.Clock
	logger    *zap.Logger
}

// NewFraudHandler creates a new fraud handler
func NewFraudHandler(scorer Scorer, now fraud.Clock, log *zap.Logger) *FraudHandler {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &FraudHandler{
		scorer:    scorer,
		validator: dto.NewValidator(),
		now:       now,
		logger:    logger.OrNop(log).Named("http"),
	}
}

// ScoreTransaction handles POST /api/v1/fraud/score
func (h *FraudHandler) ScoreTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.ScoreTransactionRequest
	if !h.decode(w, r, &req) {
		return
	}

	tx, err := req.ToTransaction(h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	decision, err := h.scorer.Execute(r.Context(), tx)
	if err != nil {
		h.writeScoringError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewFraudDecisionResponse(decision))
}

// ScoreBatch handles POST /api/v1/fraud/score/batch
func (h *FraudHandler) ScoreBatch(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchScoreRequest
	if !h.decode(w, r, &req) {
		return
	}

	now := h.now()
	txs := make([]*transaction.Transaction, 0, len(req.Transactions))
	for i := range req.Transactions {
		tx, err := req.Transactions[i].ToTransaction(now)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
				Error:   "invalid transaction",
				Details: map[string]string{"index": strconv.Itoa(i), "reason": err.Error()},
			})
			return
		}
		txs = append(txs, tx)
	}

	results, err := h.scorer.ScoreBatch(r.Context(), txs)
	if err != nil {
		h.writeScoringError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewBatchScoreResponse(results))
}

// GetDecision handles GET /api/v1/fraud/decisions/{transactionID}
func (h *FraudHandler) GetDecision(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "transactionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	decision, err := h.scorer.Decision(r.Context(), id)
	if err != nil {
		if errors.Is(err, fraud.ErrDecisionNotFound) {
			writeError(w, http.StatusNotFound, "Decision not found for transaction")
			return
		}
		h.writeScoringError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewFraudDecisionResponse(decision))
}

// GetUserDecisions handles GET /api/v1/fraud/users/{userID}/decisions
func (h *FraudHandler) GetUserDecisions(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil || limit < 1 || limit > maxPageSize {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxPageSize))
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must not be negative")
		return
	}

	page, err := h.scorer.UserDecisions(r.Context(), userID, limit, offset)
	if err != nil {
		h.writeScoringError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewUserDecisionsResponse(userID, page, limit, offset))
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// decode reads and validates a JSON body, writing a 400 on failure
func (h *FraudHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		var verr *dto.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "validation failed", Details: verr.Fields})
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *FraudHandler) writeScoringError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeError(w, status, err.Error())
}

// StatusFor maps scoring errors onto HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, fraud.ErrBatchTooLarge),
		errors.Is(err, fraud.ErrMissingTransaction),
		errors.Is(err, transaction.ErrInvalidUserID),
		errors.Is(err, transaction.ErrInvalidTransactionID):
		return http.StatusBadRequest
	case errors.Is(err, fraud.ErrDecisionNotFound):
		return http.StatusNotFound
	case errors.Is(err, fraud.ErrSignalUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, fraud.ErrAnalysisTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}
