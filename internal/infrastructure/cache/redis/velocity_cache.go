package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
	"fraud-scoring-service/internal/pkg/logger"
)

// Retention is how far back the velocity sets reach. Longer windows go to the store.
const Retention = 7 * 24 * time.Hour

// warmLimit bounds how many stored transactions seed a cold key
const warmLimit = 1000

func velocityKey(userID uuid.UUID) string {
	return fmt.Sprintf("velocity:user:%s", userID.String())
}

// VelocityCache keeps each user's recent amounts in a sorted set scored by unix time
type VelocityCache struct {
	client *Client
	now    fraud.Clock
}

// NewVelocityCache creates a new velocity cache. A nil clock means time.Now.
func NewVelocityCache(client *Client, now fraud.Clock) *VelocityCache {
	if now == nil {
		now = time.Now
	}
	return &VelocityCache{client: client, now: now}
}

// Record adds transactions to their users' sets and trims anything past Retention
func (c *VelocityCache) Record(ctx context.Context, txs ...*transaction.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	cutoff := strconv.FormatInt(c.now().Add(-Retention).Unix(), 10)

	_, err := c.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		touched := make(map[uuid.UUID]bool)
		for _, tx := range txs {
			key := velocityKey(tx.UserID)
			pipe.ZAdd(ctx, key, redis.Z{
				Score:  float64(tx.Timestamp.Unix()),
				Member: fmt.Sprintf("%s|%s", tx.ID.String(), tx.Amount.String()),
			})
			touched[tx.UserID] = true
		}
		for userID := range touched {
			key := velocityKey(userID)
			pipe.ZRemRangeByScore(ctx, key, "-inf", "("+cutoff)
			pipe.Expire(ctx, key, Retention)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

// Warm reports whether the user's set exists
func (c *VelocityCache) Warm(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := c.client.rdb.Exists(ctx, velocityKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check velocity key: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of transactions in the trailing window
func (c *VelocityCache) Count(ctx context.Context, userID uuid.UUID, window time.Duration) (int64, error) {
	minScore, maxScore := c.bounds(window)
	count, err := c.client.rdb.ZCount(ctx, velocityKey(userID), minScore, maxScore).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction count: %w", err)
	}
	return count, nil
}

// Sum returns the sum of transaction amounts in the trailing window
func (c *VelocityCache) Sum(ctx context.Context, userID uuid.UUID, window time.Duration) (decimal.Decimal, error) {
	minScore, maxScore := c.bounds(window)
	members, err := c.client.rdb.ZRangeByScore(ctx, velocityKey(userID), &redis.ZRangeBy{
		Min: minScore,
		Max: maxScore,
	}).Result()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get transactions: %w", err)
	}

	total := decimal.Zero
	for _, member := range members {
		sep := strings.LastIndexByte(member, '|')
		if sep < 0 {
			continue
		}
		if amount, err := decimal.NewFromString(member[sep+1:]); err == nil {
			total = total.Add(amount)
		}
	}
	return total, nil
}

func (c *VelocityCache) bounds(window time.Duration) (string, string) {
	now := c.now()
	return strconv.FormatInt(now.Add(-window).Unix(), 10), strconv.FormatInt(now.Unix(), 10)
}

// CachedRepository decorates a transaction.Repository: volumes inside
// Retention are answered from Redis and every successful Save is recorded.
// Redis failures fall through to the wrapped store.
type CachedRepository struct {
	transaction.Repository
	cache  *VelocityCache
	logger *zap.Logger
}

// NewCachedRepository wraps repo with the velocity cache
func NewCachedRepository(repo transaction.Repository, cache *VelocityCache, log *zap.Logger) *CachedRepository {
	return &CachedRepository{
		Repository: repo,
		cache:      cache,
		logger:     logger.OrNop(log).Named("velocity_cache"),
	}
}

func (r *CachedRepository) Save(ctx context.Context, tx *transaction.Transaction) error {
	if err := r.Repository.Save(ctx, tx); err != nil {
		return err
	}
	if err := r.cache.Record(ctx, tx); err != nil {
		r.logger.Warn("velocity cache record failed",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func (r *CachedRepository) GetUserTransactionVolume(ctx context.Context, userID uuid.UUID, window time.Duration) (decimal.Decimal, error) {
	if window > Retention {
		return r.Repository.GetUserTransactionVolume(ctx, userID, window)
	}

	if err := r.warm(ctx, userID); err != nil {
		r.logger.Warn("velocity cache unavailable, using store",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return r.Repository.GetUserTransactionVolume(ctx, userID, window)
	}

	sum, err := r.cache.Sum(ctx, userID, window)
	if err != nil {
		r.logger.Warn("velocity cache read failed, using store",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return r.Repository.GetUserTransactionVolume(ctx, userID, window)
	}
	return sum, nil
}

// warm seeds a cold key from the store
func (r *CachedRepository) warm(ctx context.Context, userID uuid.UUID) error {
	ok, err := r.cache.Warm(ctx, userID)
	if err != nil || ok {
		return err
	}

	history, err := r.Repository.GetUserTransactions(ctx, userID, warmLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	since := r.cache.now().Add(-Retention)
	recent := history[:0:0]
	for _, tx := range history {
		if !tx.Timestamp.Before(since) {
			recent = append(recent, tx)
		}
	}
	return r.cache.Record(ctx, recent...)
}
