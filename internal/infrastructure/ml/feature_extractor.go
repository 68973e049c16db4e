package ml

import (
	"math"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
)

// FeatureNames lists the model inputs in vector order
var FeatureNames = []string{
	"amount",
	"amount_log",
	"total_transactions",
	"average_amount",
	"suspicious_flags",
	"chargebacks",
	"velocity_score",
	"behavioral_risk",
	"anomaly_count",
	"is_night_time",
	"is_known_device",
}

// Features represents the feature vector for the classifier
type Features struct {
	// Transaction features
	Amount    float64 `json:"amount"`
	AmountLog float64 `json:"amount_log"`

	// Profile features, zero for a first-time user
	TotalTransactions float64 `json:"total_transactions"`
	AverageAmount     float64 `json:"average_amount"`
	SuspiciousFlags   float64 `json:"suspicious_flags"`
	Chargebacks       float64 `json:"chargebacks"`

	// Behavioral features
	VelocityScore  float64 `json:"velocity_score"`  // 0-1
	BehavioralRisk float64 `json:"behavioral_risk"` // 0-1
	AnomalyCount   float64 `json:"anomaly_count"`

	IsNightTime   float64 `json:"is_night_time"`   // 0 or 1
	IsKnownDevice float64 `json:"is_known_device"` // 0 or 1
}

// ExtractFeatures builds the feature set from the transaction, optional
// profile and optional snapshot
func ExtractFeatures(tx *transaction.Transaction, profile *fraud.UserProfile, snapshot *fraud.BehavioralSnapshot) *Features {
	f := &Features{}

	f.Amount = tx.AmountFloat()
	f.AmountLog = logAmount(f.Amount)

	hour := tx.Timestamp.Hour()
	if hour >= 1 && hour <= 5 {
		f.IsNightTime = 1
	}

	if profile != nil {
		f.TotalTransactions = float64(profile.TotalTransactions)
		f.AverageAmount = profile.AverageAmount.InexactFloat64()
		f.SuspiciousFlags = float64(profile.SuspiciousFlagCount)
		f.Chargebacks = float64(profile.ChargebackCount)
		if tx.DeviceID != "" && profile.KnowsDevice(tx.DeviceID) {
			f.IsKnownDevice = 1
		}
	}

	if snapshot != nil {
		f.BehavioralRisk = float64(snapshot.RiskScore) / 100
		f.AnomalyCount = float64(len(snapshot.AnomalyFlags))
		if snapshot.Velocity != nil {
			f.VelocityScore = float64(snapshot.Velocity.VelocityScore) / 100
		}
	}

	return f
}

// ToVector converts features to a slice in FeatureNames order
func (f *Features) ToVector() []float64 {
	return []float64{
		f.Amount,
		f.AmountLog,
		f.TotalTransactions,
		f.AverageAmount,
		f.SuspiciousFlags,
		f.Chargebacks,
		f.VelocityScore,
		f.BehavioralRisk,
		f.AnomalyCount,
		f.IsNightTime,
		f.IsKnownDevice,
	}
}

func logAmount(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	return math.Log1p(amount)
}
