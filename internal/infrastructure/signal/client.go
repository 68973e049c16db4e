package signal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
	"fraud-scoring-service/internal/pkg/logger"
)

const scorePath = "/v1/score"

// Status values the provider may return
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Config configures the HTTP provider
type Config struct {
	Endpoint           string
	APIKey             string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

type scoreRequest struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	IP            string `json:"ip"`
	DeviceID      string `json:"device_id"`
	Country       string `json:"country"`
	Gateway       string `json:"gateway"`
}

type scoreResponse struct {
	Score   *float64 `json:"score"`
	Status  string   `json:"status"`
	Reasons []string `json:"reasons"`
}

// Client implements fraud.SignalProvider against a JSON HTTP endpoint.
// Every failure, including an open breaker, wraps fraud.ErrSignalUnavailable.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates the provider client
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("signal endpoint is required")
	}
	l := logger.OrNop(log).Named("signal")

	httpClient := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "signal-provider",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{http: httpClient, breaker: breaker, logger: l}, nil
}

// Score asks the provider for a fraud probability. No retries are made.
func (c *Client) Score(ctx context.Context, tx *transaction.Transaction) (*fraud.ExternalSignal, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.call(ctx, tx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", fraud.ErrSignalUnavailable, err)
		}
		return nil, err
	}
	return out.(*fraud.ExternalSignal), nil
}

func (c *Client) call(ctx context.Context, tx *transaction.Transaction) (*fraud.ExternalSignal, error) {
	var body scoreResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(scoreRequest{
			TransactionID: tx.ID.String(),
			UserID:        tx.UserID.String(),
			Amount:        tx.Amount.String(),
			Currency:      tx.Currency,
			IP:            tx.IPAddress,
			DeviceID:      tx.DeviceID,
			Country:       tx.Country,
			Gateway:       tx.PaymentGateway,
		}).
		SetResult(&body).
		Post(scorePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fraud.ErrSignalUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: provider returned %d", fraud.ErrSignalUnavailable, resp.StatusCode())
	}
	if body.Status != StatusOK && body.Status != StatusDegraded {
		return nil, fmt.Errorf("%w: provider status %q", fraud.ErrSignalUnavailable, body.Status)
	}
	if body.Score == nil || *body.Score < 0 || *body.Score > 1 {
		return nil, fmt.Errorf("%w: score missing or out of range", fraud.ErrSignalUnavailable)
	}

	return &fraud.ExternalSignal{
		Probability: *body.Score,
		Status:      body.Status,
		Reasons:     body.Reasons,
		Raw:         resp.Body(),
	}, nil
}

// StaticProvider returns a fixed probability. Used in standalone mode.
type StaticProvider struct {
	Probability float64
}

func (p StaticProvider) Score(ctx context.Context, _ *transaction.Transaction) (*fraud.ExternalSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", fraud.ErrSignalUnavailable, err)
	}
	return &fraud.ExternalSignal{Probability: p.Probability, Status: "static"}, nil
}
