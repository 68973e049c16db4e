package riskfactor

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"fraud-scoring-service/internal/domain/transaction"
)

const (
	deviceWindow        = 24 * time.Hour
	deviceSharedUsers   = 5
	velocityHistory     = 100
	geoHistory          = 20
	geoCountryLimit     = 5
	amountHistory       = 50
	timeHistory         = 100
	largeAmount         = 5000
	firstTimeLargeSpend = 1000
)

var (
	hourlyVolumeLimit = decimal.NewFromInt(10000)
	dailyVolumeLimit  = decimal.NewFromInt(50000)
)

// deviceRisk is the fraud rate among transactions sharing the device in the
// last 24h, plus a penalty when many users share it
func (c *Calculator) deviceRisk(ctx context.Context, tx *transaction.Transaction, _ time.Time) (float64, error) {
	if tx.DeviceID == "" {
		return 0.5, nil
	}

	recent, err := c.history.GetRecentTransactions(ctx, deviceWindow)
	if err != nil {
		return 0, err
	}
	recent = transaction.Excluding(recent, tx.ID)

	var matches, fraudulent int
	users := make(map[string]struct{})
	for _, r := range recent {
		if r.DeviceID != tx.DeviceID {
			continue
		}
		matches++
		if r.IsFraudulent {
			fraudulent++
		}
		users[r.UserID.String()] = struct{}{}
	}
	if matches == 0 {
		return 0.3, nil
	}

	risk := float64(fraudulent) / float64(matches)
	if len(users) > deviceSharedUsers {
		risk += 0.3
	}
	return math.Min(risk, 1), nil
}

func (c *Calculator) velocityRisk(ctx context.Context, tx *transaction.Transaction, now time.Time) (float64, error) {
	history, err := c.history.GetUserTransactions(ctx, tx.UserID, velocityHistory)
	if err != nil {
		return 0, err
	}
	var saved *transaction.Transaction
	for _, h := range history {
		if h.ID == tx.ID {
			saved = h
			break
		}
	}
	history = transaction.Excluding(history, tx.ID)

	risk := 0.0

	hourly, err := c.history.GetUserTransactionVolume(ctx, tx.UserID, time.Hour)
	if err != nil {
		return 0, err
	}
	if hourly.Sub(savedVolume(saved, now, time.Hour)).GreaterThan(hourlyVolumeLimit) {
		risk += 0.3
	}

	daily, err := c.history.GetUserTransactionVolume(ctx, tx.UserID, 24*time.Hour)
	if err != nil {
		return 0, err
	}
	if daily.Sub(savedVolume(saved, now, 24*time.Hour)).GreaterThan(dailyVolumeLimit) {
		risk += 0.2
	}

	hourAgo := now.Add(-time.Hour)
	count := 0
	for _, h := range history {
		if !h.Timestamp.Before(hourAgo) {
			count++
		}
	}
	if count > 10 {
		risk += 0.3
	}
	if count > 20 {
		risk += 0.2
	}
	return math.Min(risk, 1), nil
}

// savedVolume is what an already stored copy of the scored transaction adds
// to a trailing volume window
func savedVolume(saved *transaction.Transaction, now time.Time, window time.Duration) decimal.Decimal {
	if saved == nil || saved.Timestamp.Before(now.Add(-window)) {
		return decimal.Zero
	}
	return saved.Amount
}

func (c *Calculator) geolocationRisk(ctx context.Context, tx *transaction.Transaction, now time.Time) (float64, error) {
	history, err := c.history.GetUserTransactions(ctx, tx.UserID, geoHistory)
	if err != nil {
		return 0, err
	}
	history = transaction.Excluding(history, tx.ID)

	risk := 0.0
	countries := make(map[string]struct{})
	highRisk := false
	for _, h := range history {
		if h.Country == "" {
			continue
		}
		countries[h.Country] = struct{}{}
		if c.highRiskCountries[h.Country] {
			highRisk = true
		}
	}
	if len(countries) > geoCountryLimit {
		risk += 0.4
	}
	if highRisk {
		risk += 0.3
	}

	// rapid country hop between the two latest transactions; a latest
	// transaction without a country cannot hop
	if len(history) >= 2 {
		latest, previous := history[0], history[1]
		if latest.Country != "" && now.Sub(latest.Timestamp) < time.Hour && latest.Country != previous.Country {
			risk += 0.3
		}
	}
	return math.Min(risk, 1), nil
}

// amountRisk grades how far the amount sits from the user's history in
// standard deviations
func (c *Calculator) amountRisk(ctx context.Context, tx *transaction.Transaction, _ time.Time) (float64, error) {
	history, err := c.history.GetUserTransactions(ctx, tx.UserID, amountHistory)
	if err != nil {
		return 0, err
	}
	history = transaction.Excluding(history, tx.ID)

	amount := tx.AmountFloat()
	if len(history) == 0 {
		if amount > firstTimeLargeSpend {
			return 0.7, nil
		}
		return 0.3, nil
	}

	amounts := make([]float64, len(history))
	for i, h := range history {
		amounts[i] = h.AmountFloat()
	}
	mean, std := stat.PopMeanStdDev(amounts, nil)
	z := math.Abs(amount-mean) / math.Max(std, 1)

	risk := 0.0
	switch {
	case z > 3:
		risk = 0.8
	case z > 2:
		risk = 0.5
	case z > 1.5:
		risk = 0.3
	}
	if amount > largeAmount {
		risk += 0.2
	}
	return math.Min(risk, 1), nil
}

// timeRisk penalises night hours and hours the user has never transacted in
func (c *Calculator) timeRisk(ctx context.Context, tx *transaction.Transaction, _ time.Time) (float64, error) {
	hour := tx.Timestamp.Hour()
	risk := 0.0
	if hour >= 1 && hour <= 5 {
		risk += 0.3
	}

	history, err := c.history.GetUserTransactions(ctx, tx.UserID, timeHistory)
	if err != nil {
		return 0, err
	}
	history = transaction.Excluding(history, tx.ID)

	histogram := make(map[int]int)
	for _, h := range history {
		histogram[h.Timestamp.Hour()]++
	}
	count, seen := histogram[hour]
	switch {
	case seen && count == 0 && len(history) > 0:
		risk += 0.2
	case !seen && len(history) > 0:
		risk += 0.3
	}
	return math.Min(risk, 1), nil
}
