package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fraud-scoring-service/internal/domain/fraud"
)

// AlertRepository keeps published alerts in memory
type AlertRepository struct {
	mu     sync.RWMutex
	alerts []*fraud.Alert
}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{}
}

func (r *AlertRepository) Create(ctx context.Context, alert *fraud.Alert) error {
	r.mu.Lock()
	r.alerts = append(r.alerts, alert)
	r.mu.Unlock()
	return nil
}

func (r *AlertRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]*fraud.Alert, error) {
	r.mu.RLock()
	out := make([]*fraud.Alert, 0)
	for _, a := range r.alerts {
		if !a.CreatedAt.Before(since) {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
