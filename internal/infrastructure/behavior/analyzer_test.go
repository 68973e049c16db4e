package behavior

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/fraud/mocks"
	"fraud-scoring-service/internal/domain/transaction"
	txmocks "fraud-scoring-service/internal/domain/transaction/mocks"
	"fraud-scoring-service/internal/infrastructure/database/memory"
)

var now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newTx(user uuid.UUID, amount int64, ts time.Time) *transaction.Transaction {
	tx := transaction.NewTransaction(user, decimal.NewFromInt(amount), "USD", ts)
	tx.IPAddress = "198.51.100.1"
	tx.DeviceID = "device-1"
	return tx
}

func TestComputeVelocity_Windows(t *testing.T) {
	user := uuid.New()
	offsets := []time.Duration{
		-10 * time.Minute,
		-30 * time.Minute,
		-2 * time.Hour,
		-10 * time.Hour,
		-5 * 24 * time.Hour,
	}
	var history []*transaction.Transaction
	for i, off := range offsets {
		history = append(history, newTx(user, int64(100*(i+1)), now.Add(off)))
	}

	m := ComputeVelocity(history, now)

	assert.Equal(t, 2, m.TransactionsLast1Hour)
	assert.Equal(t, 4, m.TransactionsLast24Hours)
	assert.Equal(t, 5, m.TransactionsLast7Days)
	assert.True(t, m.AmountLast1Hour.Equal(decimal.NewFromInt(300)), "got %s", m.AmountLast1Hour)
	assert.True(t, m.AmountLast24Hours.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 0, m.VelocityScore)
}

func TestComputeVelocity_Score(t *testing.T) {
	user := uuid.New()
	var history []*transaction.Transaction
	for i := 0; i < 11; i++ {
		tx := newTx(user, 10, now.Add(-time.Duration(i)*time.Minute))
		tx.DeviceID = fmt.Sprintf("device-%d", i)
		tx.IPAddress = fmt.Sprintf("10.0.0.%d", i)
		history = append(history, tx)
	}

	m := ComputeVelocity(history, now)

	assert.Equal(t, 11, m.UniqueDevices24Hours)
	assert.Equal(t, 11, m.UniqueIPs24Hours)
	// 1h count, devices and IPs fire; 24h count does not
	assert.Equal(t, 50, m.VelocityScore)
}

func TestAnalyze_NoProfileHasNoFlags(t *testing.T) {
	repo := memory.NewTransactionRepository(clock)
	user := uuid.New()
	for i := 0; i < 12; i++ {
		repo.Seed(newTx(user, 10, now.Add(-time.Duration(i)*time.Minute)))
	}

	a := NewAnalyzer(repo, nil, nil, WithClock(clock))
	snap := a.Analyze(context.Background(), newTx(user, 99999, now), nil)

	assert.Empty(t, snap.AnomalyFlags)
	assert.Equal(t, &fraud.GeoLocation{}, snap.Geo)
	assert.Equal(t, 20, snap.Velocity.VelocityScore)
	assert.Equal(t, 20, snap.RiskScore)
}

func TestAnalyze_RescoreIgnoresSavedCopy(t *testing.T) {
	repo := memory.NewTransactionRepository(clock)
	user := uuid.New()
	for i := 0; i < 10; i++ {
		repo.Seed(newTx(user, 10, now.Add(-time.Duration(i+1)*time.Minute)))
	}
	tx := newTx(user, 10, now)
	repo.Seed(tx)

	a := NewAnalyzer(repo, nil, nil, WithClock(clock))
	snap := a.Analyze(context.Background(), tx, nil)

	assert.Equal(t, 10, snap.Velocity.TransactionsLast1Hour)
	assert.Equal(t, 0, snap.Velocity.VelocityScore)
}

func TestAnalyze_FlagsAndScore(t *testing.T) {
	ctrl := gomock.NewController(t)
	geo := mocks.NewMockGeoLocator(ctrl)
	geo.EXPECT().Lookup(gomock.Any(), "198.51.100.1").
		Return(&fraud.GeoLocation{Country: "NL", IsTor: true, RiskScore: 40}, nil)

	repo := memory.NewTransactionRepository(clock)
	user := uuid.New()
	for i := 0; i < 11; i++ {
		repo.Seed(newTx(user, 10, now.Add(-time.Duration(i)*time.Minute)))
	}
	profile := &fraud.UserProfile{UserID: user, AverageAmount: decimal.NewFromInt(100)}

	a := NewAnalyzer(repo, geo, nil, WithClock(clock))
	snap := a.Analyze(context.Background(), newTx(user, 500, now), profile)

	assert.ElementsMatch(t, []string{
		fraud.FlagHighVelocity1H,
		fraud.FlagUnusualAmount,
		fraud.FlagProxyVPNTor,
	}, snap.AnomalyFlags)
	// 3 flags * 10 + geo 40 + velocity 20
	assert.Equal(t, 90, snap.RiskScore)
}

func TestAnalyze_GeoFailureIsAbsentSignal(t *testing.T) {
	ctrl := gomock.NewController(t)
	geo := mocks.NewMockGeoLocator(ctrl)
	geo.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, errors.New("mmdb corrupt"))

	a := NewAnalyzer(memory.NewTransactionRepository(clock), geo, nil, WithClock(clock))
	snap := a.Analyze(context.Background(), newTx(uuid.New(), 10, now), nil)

	assert.Nil(t, snap.Geo)
	assert.Equal(t, 0, snap.RiskScore)
}

func TestAnalyze_HistoryFailureKeepsSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	history := txmocks.NewMockHistoryRepository(ctrl)
	history.EXPECT().GetUserTransactions(gomock.Any(), gomock.Any(), 1000).
		Return(nil, errors.New("connection refused"))

	a := NewAnalyzer(history, nil, nil, WithClock(clock))
	snap := a.Analyze(context.Background(), newTx(uuid.New(), 10, now), &fraud.UserProfile{AverageAmount: decimal.NewFromInt(100)})

	require.NotNil(t, snap.Velocity)
	assert.Equal(t, 0, snap.Velocity.TransactionsLast1Hour)
	assert.Empty(t, snap.AnomalyFlags)
	assert.Equal(t, "device-1", snap.Device.DeviceID)
}
