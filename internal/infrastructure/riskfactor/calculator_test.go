package riskfactor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
	txmocks "fraud-scoring-service/internal/domain/transaction/mocks"
	"fraud-scoring-service/internal/infrastructure/database/memory"
	"fraud-scoring-service/internal/infrastructure/metrics"
)

// 14:00 UTC, outside the night window
var now = time.Date(2025, 3, 14, 14, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newTx(user uuid.UUID, amount int64, ts time.Time) *transaction.Transaction {
	tx := transaction.NewTransaction(user, decimal.NewFromInt(amount), "USD", ts)
	tx.DeviceID = "device-1"
	tx.Country = "US"
	return tx
}

func TestComputeAll_NoHistory(t *testing.T) {
	repo := memory.NewTransactionRepository(clock)
	calc := NewCalculator(repo, nil, WithClock(clock))

	tests := []struct {
		name       string
		amount     int64
		wantAmount float64
	}{
		{"large first purchase", 1500, 0.7},
		{"small first purchase", 200, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := calc.ComputeAll(context.Background(), newTx(uuid.New(), tt.amount, now), nil)
			assert.Equal(t, tt.wantAmount, b[fraud.FactorAmount])
			assert.Equal(t, 0.3, b[fraud.FactorDevice], "device never seen")
			assert.Equal(t, 0.0, b[fraud.FactorVelocity])
			assert.Equal(t, 0.0, b[fraud.FactorGeolocation])
			assert.Equal(t, 0.0, b[fraud.FactorTime])
		})
	}
}

func TestComputeAll_KeysAndBounds(t *testing.T) {
	repo := memory.NewTransactionRepository(clock)
	user := uuid.New()
	countries := []string{"US", "NG", "FR", "DE", "BR", "JP", "MX"}
	for i := 0; i < 30; i++ {
		tx := newTx(user, int64(1000+i*900), now.Add(-time.Duration(i)*2*time.Minute))
		tx.Country = countries[i%len(countries)]
		tx.IsFraudulent = i%2 == 0
		repo.Seed(tx)
	}
	calc := NewCalculator(repo, nil, WithClock(clock))

	b := calc.ComputeAll(context.Background(), newTx(user, 90000, now), nil)

	require.Len(t, b, 5)
	for _, k := range fraud.BreakdownKeys {
		v, ok := b[k]
		require.True(t, ok, k)
		assert.GreaterOrEqual(t, v, 0.0, k)
		assert.LessOrEqual(t, v, 1.0, k)
	}
	assert.Equal(t, 1.0, b[fraud.FactorVelocity])
	assert.Equal(t, 1.0, b[fraud.FactorGeolocation])
}

func TestDeviceRisk_SharedDevice(t *testing.T) {
	repo := memory.NewTransactionRepository(clock)
	for i := 0; i < 6; i++ {
		tx := newTx(uuid.New(), 50, now.Add(-time.Duration(i+1)*time.Hour))
		tx.DeviceID = "shared-device"
		repo.Seed(tx)
	}
	calc := NewCalculator(repo, nil, WithClock(clock))
	tx := newTx(uuid.New(), 50, now)
	tx.DeviceID = "shared-device"

	risk, err := calc.deviceRisk(context.Background(), tx, now)
	require.NoError(t, err)
	// no fraud among them, six distinct users
	assert.InDelta(t, 0.3, risk, 1e-9)

	tx.DeviceID = ""
	risk, err = calc.deviceRisk(context.Background(), tx, now)
	require.NoError(t, err)
	assert.Equal(t, 0.5, risk)
}

func TestAmountRisk_ZScore(t *testing.T) {
	repo := memory.NewTransactionRepository(clock)
	user := uuid.New()
	// mean 100, population stddev 10
	for i, amt := range []int64{90, 110, 90, 110} {
		repo.Seed(newTx(user, amt, now.Add(-time.Duration(i+1)*time.Hour)))
	}
	calc := NewCalculator(repo, nil, WithClock(clock))

	tests := []struct {
		amount int64
		want   float64
	}{
		{105, 0},
		{116, 0.3},
		{125, 0.5},
		{140, 0.8},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.amount), func(t *testing.T) {
			risk, err := calc.amountRisk(context.Background(), newTx(user, tt.amount, now), now)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, risk, 1e-9)
		})
	}
}

func TestAmountRisk_FlatHistoryUsesUnitDeviation(t *testing.T) {
	repo := memory.NewTransactionRepository(clock)
	user := uuid.New()
	for i := 0; i < 3; i++ {
		repo.Seed(newTx(user, 100, now.Add(-time.Duration(i+1)*time.Hour)))
	}
	calc := NewCalculator(repo, nil, WithClock(clock))

	risk, err := calc.amountRisk(context.Background(), newTx(user, 102, now), now)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, risk, 1e-9, "z = 2 with stddev floored to 1")
}

func TestGeolocationRisk_CountryHop(t *testing.T) {
	tests := []struct {
		name          string
		prevCountry   string
		latestCountry string
		latestAgo     time.Duration
		want          float64
	}{
		// RO is on the default high-risk list
		{"hop into high-risk country", "US", "RO", 20 * time.Minute, 0.6},
		{"hop between ordinary countries", "US", "FR", 20 * time.Minute, 0.3},
		{"same country", "US", "US", 20 * time.Minute, 0},
		{"latest without country", "US", "", 10 * time.Minute, 0},
		{"latest older than an hour", "US", "FR", 2 * time.Hour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewTransactionRepository(clock)
			user := uuid.New()
			prev := newTx(user, 10, now.Add(-3*time.Hour))
			prev.Country = tt.prevCountry
			latest := newTx(user, 10, now.Add(-tt.latestAgo))
			latest.Country = tt.latestCountry
			repo.Seed(prev, latest)
			calc := NewCalculator(repo, nil, WithClock(clock))

			risk, err := calc.geolocationRisk(context.Background(), newTx(user, 10, now), now)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, risk, 1e-9)
		})
	}
}

func TestVelocityRisk_Steps(t *testing.T) {
	tests := []struct {
		name string
		seed func(user uuid.UUID) []*transaction.Transaction
		want float64
	}{
		{"quiet user", func(uuid.UUID) []*transaction.Transaction { return nil }, 0},
		{"hourly volume over limit", func(u uuid.UUID) []*transaction.Transaction {
			return []*transaction.Transaction{newTx(u, 10001, now.Add(-30*time.Minute))}
		}, 0.3},
		{"hourly volume at limit", func(u uuid.UUID) []*transaction.Transaction {
			return []*transaction.Transaction{newTx(u, 10000, now.Add(-30*time.Minute))}
		}, 0},
		{"daily volume over limit", func(u uuid.UUID) []*transaction.Transaction {
			return []*transaction.Transaction{newTx(u, 50001, now.Add(-2*time.Hour))}
		}, 0.2},
		{"ten in the last hour", func(u uuid.UUID) []*transaction.Transaction { return burst(u, 10) }, 0},
		{"eleven in the last hour", func(u uuid.UUID) []*transaction.Transaction { return burst(u, 11) }, 0.3},
		{"twenty in the last hour", func(u uuid.UUID) []*transaction.Transaction { return burst(u, 20) }, 0.3},
		{"twenty-one in the last hour", func(u uuid.UUID) []*transaction.Transaction { return burst(u, 21) }, 0.5},
		{"hourly volume and burst", func(u uuid.UUID) []*transaction.Transaction {
			return append(burst(u, 11), newTx(u, 10001, now.Add(-5*time.Minute)))
		}, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewTransactionRepository(clock)
			user := uuid.New()
			repo.Seed(tt.seed(user)...)
			calc := NewCalculator(repo, nil, WithClock(clock))

			risk, err := calc.velocityRisk(context.Background(), newTx(user, 1, now), now)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, risk, 1e-9)
		})
	}
}

// burst returns n small transactions spread over the last hour
func burst(user uuid.UUID, n int) []*transaction.Transaction {
	txs := make([]*transaction.Transaction, n)
	for i := range txs {
		txs[i] = newTx(user, 1, now.Add(-time.Duration(i+1)*2*time.Minute))
	}
	return txs
}

func TestComputeAll_RescoreIgnoresSavedCopy(t *testing.T) {
	repo := memory.NewTransactionRepository(clock)
	user := uuid.New()
	prior := newTx(user, 6000, now.Add(-10*time.Minute))
	prior.Country = "FR"
	repo.Seed(prior)
	calc := NewCalculator(repo, nil, WithClock(clock))

	tx := newTx(user, 5000, now)
	first := calc.ComputeAll(context.Background(), tx, nil)

	// the first attempt was persisted before the client retried
	repo.Seed(tx)
	second := calc.ComputeAll(context.Background(), tx, nil)

	assert.Equal(t, first, second)
	assert.Equal(t, 0.0, second[fraud.FactorGeolocation])
	assert.Equal(t, 0.0, second[fraud.FactorVelocity])
}

func TestTimeRisk(t *testing.T) {
	repo := memory.NewTransactionRepository(clock)
	user := uuid.New()
	repo.Seed(newTx(user, 10, time.Date(2025, 3, 13, 14, 30, 0, 0, time.UTC)))
	calc := NewCalculator(repo, nil, WithClock(clock))

	tests := []struct {
		name string
		ts   time.Time
		want float64
	}{
		{"usual hour", time.Date(2025, 3, 14, 14, 0, 0, 0, time.UTC), 0},
		{"new daytime hour", time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC), 0.3},
		{"new night hour", time.Date(2025, 3, 14, 3, 0, 0, 0, time.UTC), 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk, err := calc.timeRisk(context.Background(), newTx(user, 10, tt.ts), now)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, risk, 1e-9)
		})
	}
}

func TestComputeAll_FailureFallsBackPerDimension(t *testing.T) {
	ctrl := gomock.NewController(t)
	history := txmocks.NewMockHistoryRepository(ctrl)
	boom := errors.New("history unavailable")

	history.EXPECT().GetRecentTransactions(gomock.Any(), 24*time.Hour).Return(nil, boom)
	history.EXPECT().GetUserTransactionVolume(gomock.Any(), gomock.Any(), gomock.Any()).Return(decimal.Zero, nil).AnyTimes()
	history.EXPECT().GetUserTransactions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	m := metrics.New(prometheus.NewRegistry())
	calc := NewCalculator(history, nil, WithClock(clock), WithMetrics(m))

	b := calc.ComputeAll(context.Background(), newTx(uuid.New(), 200, now), nil)

	assert.Equal(t, 0.5, b[fraud.FactorDevice])
	assert.Equal(t, 0.0, b[fraud.FactorVelocity])
	assert.Equal(t, 0.3, b[fraud.FactorAmount])
}

func TestComputeAll_Idempotent(t *testing.T) {
	repo := memory.NewTransactionRepository(clock)
	user := uuid.New()
	for i := 0; i < 15; i++ {
		repo.Seed(newTx(user, int64(20+i*40), now.Add(-time.Duration(i)*7*time.Minute)))
	}
	calc := NewCalculator(repo, nil, WithClock(clock))
	tx := newTx(user, 3000, now)

	first := calc.ComputeAll(context.Background(), tx, nil)
	second := calc.ComputeAll(context.Background(), tx, nil)
	assert.Equal(t, first, second)
}
