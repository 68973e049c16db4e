package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
)

// TransactionRepository implements transaction.Repository in process memory.
// It is used in standalone mode and by component tests.
type TransactionRepository struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*transaction.Transaction
	now          fraud.Clock
}

// NewTransactionRepository creates an empty repository. A nil clock means time.Now.
func NewTransactionRepository(now fraud.Clock) *TransactionRepository {
	if now == nil {
		now = time.Now
	}
	return &TransactionRepository{
		transactions: make(map[uuid.UUID]*transaction.Transaction),
		now:          now,
	}
}

// Save inserts or replaces a transaction. A copy is stored.
func (r *TransactionRepository) Save(ctx context.Context, tx *transaction.Transaction) error {
	if tx == nil {
		return fraud.ErrMissingTransaction
	}
	cp := *tx
	r.mu.Lock()
	r.transactions[tx.ID] = &cp
	r.mu.Unlock()
	return nil
}

// Seed stores transactions without any validation. Test and demo helper.
func (r *TransactionRepository) Seed(txs ...*transaction.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range txs {
		cp := *tx
		r.transactions[tx.ID] = &cp
	}
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tx, ok := r.transactions[id]; ok {
		cp := *tx
		return &cp, nil
	}
	return nil, transaction.ErrTransactionNotFound
}

func (r *TransactionRepository) GetUserTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*transaction.Transaction, error) {
	out := r.filter(func(tx *transaction.Transaction) bool { return tx.UserID == userID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *TransactionRepository) GetRecentTransactions(ctx context.Context, window time.Duration) ([]*transaction.Transaction, error) {
	since := r.now().Add(-window)
	return r.filter(func(tx *transaction.Transaction) bool { return !tx.Timestamp.Before(since) }), nil
}

func (r *TransactionRepository) GetUserTransactionVolume(ctx context.Context, userID uuid.UUID, window time.Duration) (decimal.Decimal, error) {
	since := r.now().Add(-window)
	total := decimal.Zero
	for _, tx := range r.filter(func(tx *transaction.Transaction) bool {
		return tx.UserID == userID && !tx.Timestamp.Before(since)
	}) {
		total = total.Add(tx.Amount)
	}
	return total, nil
}

func (r *TransactionRepository) GetTransactionsBetween(ctx context.Context, start, end time.Time) ([]*transaction.Transaction, error) {
	return r.filter(func(tx *transaction.Transaction) bool {
		return !tx.Timestamp.Before(start) && tx.Timestamp.Before(end)
	}), nil
}

// filter returns copies of matching transactions, most recent first
func (r *TransactionRepository) filter(keep func(*transaction.Transaction) bool) []*transaction.Transaction {
	r.mu.RLock()
	out := make([]*transaction.Transaction, 0)
	for _, tx := range r.transactions {
		if keep(tx) {
			cp := *tx
			out = append(out, &cp)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
