package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fraud-scoring-service/internal/domain/fraud"
)

// blockedWindow is how far back UserDecisions counts blocks
const blockedWindow = 24 * time.Hour

// UserDecisionHistory is one page of a user's decisions
type UserDecisionHistory struct {
	Decisions          []*fraud.FraudDecision
	BlockedLast24Hours int64
}

// UserDecisions lists the recorded decisions for a user, newest first, along
// with how often the user was blocked in the last 24 hours
func (uc *ScoreTransactionUseCase) UserDecisions(ctx context.Context, userID uuid.UUID, limit, offset int) (*UserDecisionHistory, error) {
	if uc.deps.Decisions == nil {
		return &UserDecisionHistory{Decisions: []*fraud.FraudDecision{}}, nil
	}

	decisions, err := uc.deps.Decisions.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	blocked, err := uc.deps.Decisions.GetBlockedCount(ctx, userID, uc.now().Add(-blockedWindow))
	if err != nil {
		return nil, fmt.Errorf("count blocked decisions: %w", err)
	}
	return &UserDecisionHistory{Decisions: decisions, BlockedLast24Hours: blocked}, nil
}
