package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/transaction"
)

func TestScoreBatch_PreservesOrder(t *testing.T) {
	f := newFixture(t)
	blocked, approved, failing := newTx(), newTx(), newTx()

	f.rules.EXPECT().ShouldBlock(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tx *transaction.Transaction) (bool, error) {
			return tx.ID == blocked.ID, nil
		}).Times(3)
	f.profiles.EXPECT().GetByUserID(gomock.Any(), gomock.Any()).Return(nil, fraud.ErrProfileNotFound).Times(2)
	f.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any()).Return(&fraud.BehavioralSnapshot{}).Times(2)
	f.predictor.EXPECT().Predict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(0.1).Times(2)
	f.risk.EXPECT().ComputeAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(breakdown()).Times(2)
	f.rules.EXPECT().Evaluate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)
	f.signal.EXPECT().Score(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tx *transaction.Transaction) (*fraud.ExternalSignal, error) {
			if tx.ID == failing.ID {
				return nil, fraud.ErrSignalUnavailable
			}
			return &fraud.ExternalSignal{Probability: 0.1, Status: "ok"}, nil
		}).Times(2)
	f.rules.EXPECT().RequiresManualReview(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
	f.sink.EXPECT().Save(gomock.Any(), approved).Return(nil)
	f.decisions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	results, err := f.uc.ScoreBatch(context.Background(), []*transaction.Transaction{blocked, approved, failing})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, blocked.ID, results[0].TransactionID)
	assert.Equal(t, fraud.DecisionBlocked, results[0].Decision.Decision)

	assert.Equal(t, approved.ID, results[1].TransactionID)
	require.NoError(t, results[1].Err)
	assert.Equal(t, fraud.DecisionApproved, results[1].Decision.Decision)

	assert.Equal(t, failing.ID, results[2].TransactionID)
	assert.Nil(t, results[2].Decision)
	assert.ErrorIs(t, results[2].Err, fraud.ErrSignalUnavailable)
}

func TestScoreBatch_TooLarge(t *testing.T) {
	f := newFixture(t)
	txs := make([]*transaction.Transaction, MaxBatchSize+1)
	for i := range txs {
		txs[i] = newTx()
	}

	_, err := f.uc.ScoreBatch(context.Background(), txs)
	assert.ErrorIs(t, err, fraud.ErrBatchTooLarge)
}

func TestScoreBatch_NilItem(t *testing.T) {
	f := newFixture(t)
	results, err := f.uc.ScoreBatch(context.Background(), []*transaction.Transaction{nil})
	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, fraud.ErrMissingTransaction)
}
