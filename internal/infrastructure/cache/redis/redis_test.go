package redis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-scoring-service/internal/domain/transaction"
	"fraud-scoring-service/internal/infrastructure/database/memory"
)

var now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return Wrap(rdb), mr
}

func txAt(userID uuid.UUID, amount int64, ago time.Duration) *transaction.Transaction {
	return transaction.NewTransaction(userID, decimal.NewFromInt(amount), "USD", now.Add(-ago))
}

func TestVelocityCache_SumAndCount(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewVelocityCache(client, clock)
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, cache.Record(ctx,
		txAt(user, 100, 10*time.Minute),
		txAt(user, 250, 3*time.Hour),
		txAt(user, 40, 8*24*time.Hour),
		txAt(uuid.New(), 999, time.Minute),
	))

	sum, err := cache.Sum(ctx, user, time.Hour)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(100)))

	sum, err = cache.Sum(ctx, user, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(350)))

	count, err := cache.Count(ctx, user, Retention)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "entries past retention are trimmed")
}

func TestCachedRepository_WarmsFromStoreAndRecordsSaves(t *testing.T) {
	client, mr := newTestClient(t)
	store := memory.NewTransactionRepository(clock)
	user := uuid.New()
	store.Seed(txAt(user, 100, 30*time.Minute), txAt(user, 50, 2*time.Hour))

	repo := NewCachedRepository(store, NewVelocityCache(client, clock), nil)
	ctx := context.Background()

	vol, err := repo.GetUserTransactionVolume(ctx, user, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, vol.Equal(decimal.NewFromInt(150)))
	assert.True(t, mr.Exists(velocityKey(user)))

	require.NoError(t, repo.Save(ctx, txAt(user, 25, time.Minute)))

	vol, err = repo.GetUserTransactionVolume(ctx, user, time.Hour)
	require.NoError(t, err)
	assert.True(t, vol.Equal(decimal.NewFromInt(125)))
}

func TestCachedRepository_FallsBackWhenRedisDown(t *testing.T) {
	client, mr := newTestClient(t)
	store := memory.NewTransactionRepository(clock)
	user := uuid.New()
	store.Seed(txAt(user, 70, 10*time.Minute))

	repo := NewCachedRepository(store, NewVelocityCache(client, clock), nil)
	mr.Close()

	vol, err := repo.GetUserTransactionVolume(context.Background(), user, time.Hour)
	require.NoError(t, err)
	assert.True(t, vol.Equal(decimal.NewFromInt(70)))

	require.NoError(t, repo.Save(context.Background(), txAt(user, 5, time.Minute)), "cache errors do not fail saves")
}

func TestRateLimiter(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client, 2, nil)
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/fraud/score", nil)
		req.RemoteAddr = "198.51.100.4:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	client, mr := newTestClient(t)
	limiter := NewRateLimiter(client, 1, nil)
	mr.Close()

	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
