package fraud

import (
	"context"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=repository.go -destination=mocks/repository_mock.go -package=mocks

// ProfileRepository reads user profiles
type ProfileRepository interface {
	// GetByUserID returns ErrProfileNotFound for a first-time user
	GetByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
}

// DecisionRepository manages the fraud decision audit trail
type DecisionRepository interface {
	// Create stores a fraud decision
	Create(ctx context.Context, decision *FraudDecision) error

	// GetByTransactionID retrieves the decision for a transaction
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*FraudDecision, error)

	// ListByUserID gets fraud decisions for a user, newest first
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*FraudDecision, error)

	// GetBlockedCount counts how many times a user has been blocked
	GetBlockedCount(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
}

// AlertRepository stores every alert that was handed to the alert bus
type AlertRepository interface {
	Create(ctx context.Context, alert *Alert) error

	// ListSince returns alerts created at or after since, newest first
	ListSince(ctx context.Context, since time.Time, limit int) ([]*Alert, error)
}
