package redis

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/pkg/logger"
)

// RateLimiter limits requests per client IP with a Redis-backed GCRA
type RateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	logger  *zap.Logger
}

// NewRateLimiter allows perSecond requests per client
func NewRateLimiter(client *Client, perSecond int, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limiter: redis_rate.NewLimiter(client.rdb),
		limit:   redis_rate.PerSecond(perSecond),
		logger:  logger.OrNop(log).Named("ratelimit"),
	}
}

// Middleware rejects over-limit clients with 429. If Redis fails the request is let through.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ratelimit:" + clientIP(r)

		res, err := l.limiter.Allow(r.Context(), key, l.limit)
		if err != nil {
			l.logger.Warn("rate limiter unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit.Rate))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if res.Allowed == 0 {
			seconds := int(res.RetryAfter.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
