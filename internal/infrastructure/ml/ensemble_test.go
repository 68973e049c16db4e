package ml

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/fraud/mocks"
)

func flatBreakdown(v float64) fraud.RiskBreakdown {
	b := fraud.RiskBreakdown{}
	for _, k := range fraud.BreakdownKeys {
		b[k] = v
	}
	return b
}

func TestEnsemble_WeightedSum(t *testing.T) {
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	risk := mocks.NewMockRiskCalculator(ctrl)

	tx := newTx(100, noon)
	snapshot := &fraud.BehavioralSnapshot{RiskScore: 40}

	classifier.EXPECT().Predict(gomock.Any(), tx, nil, snapshot).Return(0.8, nil)
	risk.EXPECT().ComputeAll(gomock.Any(), tx, nil).Return(flatBreakdown(0.25))

	e := NewEnsemble(classifier, risk, fraud.DefaultScoreWeights(), nil, nil)
	got := e.Predict(context.Background(), tx, nil, snapshot)

	// 0.4*0.8 + 0.25*0 + 0.2*0.25 + 0.15*0.4
	assert.InDelta(t, 0.43, got, 1e-9)
}

func TestEnsemble_FailuresFallBackToNeutral(t *testing.T) {
	tests := []struct {
		name       string
		classifier func(m *mocks.MockClassifier)
		risk       func(m *mocks.MockRiskCalculator)
	}{
		{
			name: "classifier error",
			classifier: func(m *mocks.MockClassifier) {
				m.EXPECT().Predict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(0.0, errors.New("model offline"))
			},
		},
		{
			name: "classifier panic",
			classifier: func(m *mocks.MockClassifier) {
				m.EXPECT().Predict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, _, _, _ any) (float64, error) { panic("nil model") })
			},
		},
		{
			name: "classifier NaN",
			classifier: func(m *mocks.MockClassifier) {
				m.EXPECT().Predict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(math.NaN(), nil)
			},
		},
		{
			name: "classifier out of range",
			classifier: func(m *mocks.MockClassifier) {
				m.EXPECT().Predict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(7.0, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			classifier := mocks.NewMockClassifier(ctrl)
			risk := mocks.NewMockRiskCalculator(ctrl)
			tt.classifier(classifier)
			risk.EXPECT().ComputeAll(gomock.Any(), gomock.Any(), nil).Return(flatBreakdown(1))

			e := NewEnsemble(classifier, risk, fraud.DefaultScoreWeights(), nil, nil)
			got := e.Predict(context.Background(), newTx(60000, time.Date(2025, 3, 14, 2, 0, 0, 0, time.UTC)), nil, nil)

			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestEnsemble_MissingSnapshotIsNeutral(t *testing.T) {
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	risk := mocks.NewMockRiskCalculator(ctrl)
	classifier.EXPECT().Predict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(0.0, nil)
	risk.EXPECT().ComputeAll(gomock.Any(), gomock.Any(), nil).Return(flatBreakdown(0))

	e := NewEnsemble(classifier, risk, fraud.DefaultScoreWeights(), nil, nil)
	got := e.Predict(context.Background(), newTx(10, noon), nil, nil)

	assert.InDelta(t, 0.15*0.5, got, 1e-9)
}

func TestRuleBasedScore(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		hour   int
		flags  []string
		want   float64
	}{
		{"quiet", 100, 12, nil, 0},
		{"large", 20000, 12, nil, 0.3},
		{"very large", 60000, 12, nil, 0.7},
		{"velocity class", 100, 12, []string{fraud.FlagHighVelocity24H}, 0.3},
		{"night with unusual amount and new device", 100, 4, []string{fraud.FlagUnusualAmount, fraud.FlagNewDevice}, 0.5},
		{"capped", 60000, 3, []string{fraud.FlagHighVelocity1H, fraud.FlagFirstTimeCountry}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := newTx(tt.amount, time.Date(2025, 3, 14, tt.hour, 0, 0, 0, time.UTC))
			got := ruleBasedScore(tx, &fraud.BehavioralSnapshot{AnomalyFlags: tt.flags})
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
