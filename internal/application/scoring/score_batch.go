package scoring

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
)

// MaxBatchSize is the largest batch ScoreBatch accepts
const MaxBatchSize = 100

// BatchResult carries either the decision or the error for one transaction
type BatchResult struct {
	TransactionID uuid.UUID
	Decision      *fraud.FraudDecision
	Err           error
}

// ScoreBatch scores transactions with bounded parallelism. Results are in input order.
func (uc *ScoreTransactionUseCase) ScoreBatch(ctx context.Context, txs []*transaction.Transaction) ([]BatchResult, error) {
	if len(txs) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", fraud.ErrBatchTooLarge, len(txs), MaxBatchSize)
	}

	mapper := iter.Mapper[*transaction.Transaction, BatchResult]{
		MaxGoroutines: uc.cfg.BatchConcurrency,
	}
	return mapper.Map(txs, func(tx **transaction.Transaction) BatchResult {
		if *tx == nil {
			return BatchResult{Err: fraud.ErrMissingTransaction}
		}
		decision, err := uc.Execute(ctx, *tx)
		return BatchResult{TransactionID: (*tx).ID, Decision: decision, Err: err}
	}), nil
}
