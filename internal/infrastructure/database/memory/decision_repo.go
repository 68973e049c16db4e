package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fraud-scoring-service/internal/domain/fraud"
)

// DecisionRepository implements fraud.DecisionRepository for standalone mode
type DecisionRepository struct {
	mu        sync.RWMutex
	decisions map[uuid.UUID]*fraud.FraudDecision // keyed by transaction
}

func NewDecisionRepository() *DecisionRepository {
	return &DecisionRepository{
		decisions: make(map[uuid.UUID]*fraud.FraudDecision),
	}
}

// Create replaces any earlier decision for the same transaction
func (r *DecisionRepository) Create(ctx context.Context, decision *fraud.FraudDecision) error {
	r.mu.Lock()
	r.decisions[decision.TransactionID] = decision
	r.mu.Unlock()
	return nil
}

func (r *DecisionRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*fraud.FraudDecision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.decisions[transactionID]; ok {
		return d, nil
	}
	return nil, fraud.ErrDecisionNotFound
}

func (r *DecisionRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*fraud.FraudDecision, error) {
	r.mu.RLock()
	var results []*fraud.FraudDecision
	for _, d := range r.decisions {
		if d.UserID == userID {
			results = append(results, d)
		}
	}
	r.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool { return results[i].ProcessedAt.After(results[j].ProcessedAt) })
	if offset >= len(results) {
		return []*fraud.FraudDecision{}, nil
	}
	results = results[offset:]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *DecisionRepository) GetBlockedCount(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, d := range r.decisions {
		if d.UserID == userID && d.Decision == fraud.DecisionBlocked && !d.ProcessedAt.Before(since) {
			count++
		}
	}
	return count, nil
}
