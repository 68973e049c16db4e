package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repository.go -destination=mocks/repository_mock.go -package=mocks

// HistoryRepository is the read side of transaction history used for scoring.
// Windows are trailing windows anchored at the repository's notion of now.
type HistoryRepository interface {
	// GetUserTransactions returns up to limit transactions for a user, most recent first
	GetUserTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*Transaction, error)

	// GetRecentTransactions returns every transaction in the trailing window
	GetRecentTransactions(ctx context.Context, window time.Duration) ([]*Transaction, error)

	// GetUserTransactionVolume sums a user's amounts in the trailing window
	GetUserTransactionVolume(ctx context.Context, userID uuid.UUID, window time.Duration) (decimal.Decimal, error)

	// GetTransactionsBetween returns all transactions with start <= timestamp < end
	GetTransactionsBetween(ctx context.Context, start, end time.Time) ([]*Transaction, error)
}

// Sink persists a transaction once it has been scored
type Sink interface {
	Save(ctx context.Context, tx *Transaction) error
}

// Repository is the full storage contract implemented by the backing stores
type Repository interface {
	HistoryRepository
	Sink

	// GetByID retrieves a transaction by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
}
