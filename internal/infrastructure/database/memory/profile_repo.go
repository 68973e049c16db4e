package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"fraud-scoring-service/internal/domain/fraud"
)

// ProfileRepository implements fraud.ProfileRepository in process memory
type ProfileRepository struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*fraud.UserProfile
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{profiles: make(map[uuid.UUID]*fraud.UserProfile)}
}

// Put stores a profile, replacing any previous one for the user
func (r *ProfileRepository) Put(profile *fraud.UserProfile) {
	cp := *profile
	r.mu.Lock()
	r.profiles[profile.UserID] = &cp
	r.mu.Unlock()
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*fraud.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fraud.ErrProfileNotFound
}
