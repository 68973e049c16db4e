package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
	"fraud-scoring-service/internal/pkg/logger"
)

// Model is a logistic model over the Features vector
type Model struct {
	Version string    `json:"version"`
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
}

// LoadModel reads a JSON model file and checks its shape
func LoadModel(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if len(m.Weights) != len(FeatureNames) {
		return nil, fmt.Errorf("model has %d weights, want %d", len(m.Weights), len(FeatureNames))
	}
	return &m, nil
}

// Score returns sigmoid(bias + w·x)
func (m *Model) Score(features *Features) float64 {
	x := mat.NewVecDense(len(FeatureNames), features.ToVector())
	w := mat.NewVecDense(len(m.Weights), m.Weights)
	return sigmoid(m.Bias + mat.Dot(w, x))
}

// Classifier implements fraud.Classifier. Without a model it uses a
// heuristic over the behavioral snapshot and profile.
type Classifier struct {
	model  *Model
	logger *zap.Logger
}

// NewClassifier creates a classifier. model may be nil.
func NewClassifier(model *Model, log *zap.Logger) *Classifier {
	c := &Classifier{model: model, logger: logger.OrNop(log).Named("classifier")}
	c.logger.Info("classifier ready", zap.String("model_version", c.ModelVersion()))
	return c
}

// ModelVersion returns the loaded model's version, or "heuristic"
func (c *Classifier) ModelVersion() string {
	if c.model == nil {
		return "heuristic"
	}
	return c.model.Version
}

func (c *Classifier) Predict(ctx context.Context, tx *transaction.Transaction, profile *fraud.UserProfile, snapshot *fraud.BehavioralSnapshot) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if c.model != nil {
		return c.model.Score(ExtractFeatures(tx, profile, snapshot)), nil
	}
	return heuristicScore(tx, profile, snapshot), nil
}

var fiveTimes = decimal.NewFromInt(5)

func heuristicScore(tx *transaction.Transaction, profile *fraud.UserProfile, snapshot *fraud.BehavioralSnapshot) float64 {
	score := 0.0
	if snapshot != nil {
		score += float64(snapshot.RiskScore) / 100 * 0.3
		if snapshot.Velocity != nil {
			score += float64(snapshot.Velocity.VelocityScore) / 100 * 0.2
		}
		score += 0.1 * float64(len(snapshot.AnomalyFlags))
	}
	if profile != nil {
		if profile.SuspiciousFlagCount > 0 {
			score += 0.2
		}
		if profile.ChargebackCount > 0 {
			score += 0.15
		}
		if tx.Amount.GreaterThan(profile.AverageAmount.Mul(fiveTimes)) {
			score += 0.1
		}
	}
	return math.Min(score, 1)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
