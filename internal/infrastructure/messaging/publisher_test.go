package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/domain/fraud/mocks"
	"fraud-scoring-service/internal/pkg/config"
)

func testAlert() *fraud.Alert {
	return &fraud.Alert{
		ID:            uuid.New(),
		TransactionID: uuid.New(),
		UserID:        uuid.New(),
		Amount:        decimal.NewFromInt(5000),
		Probability:   0.93,
		Type:          fraud.AlertHighRisk,
		Severity:      fraud.SeverityCritical,
		Reasons:       []string{"HIGH_AMOUNT"},
		CreatedAt:     time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := NewLogPublisher(zap.New(core))

	a := testAlert()
	require.NoError(t, p.Publish(context.Background(), a))

	entries := logs.FilterMessage("fraud alert").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "CRITICAL", entries[0].ContextMap()["severity"])
	assert.Equal(t, a.TransactionID.String(), entries[0].ContextMap()["transaction_id"])
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, logger: zap.NewNop()}
	a := testAlert()

	require.NoError(t, p.Publish(context.Background(), a))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, a.UserID.String(), string(w.msgs[0].Key))

	var decoded fraud.Alert
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, a.ID, decoded.ID)

	w.err = errors.New("leader not available")
	assert.ErrorIs(t, p.Publish(context.Background(), a), fraud.ErrAlertPublishFailed)
}

type fakeNATS struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeNATS) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.err
}

func (f *fakeNATS) FlushWithContext(context.Context) error { return nil }
func (f *fakeNATS) Drain() error                          { return nil }

func TestNATSPublisher(t *testing.T) {
	conn := &fakeNATS{}
	p := &NATSPublisher{conn: conn, subject: "fraud.alerts", logger: zap.NewNop()}

	require.NoError(t, p.Publish(context.Background(), testAlert()))
	assert.Equal(t, "fraud.alerts", conn.subject)
	assert.NotEmpty(t, conn.data)

	conn.err = errors.New("connection closed")
	assert.ErrorIs(t, p.Publish(context.Background(), testAlert()), fraud.ErrAlertPublishFailed)
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestRabbitMQPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := &RabbitMQPublisher{channel: ch, exchange: "fraud", routingKey: "fraud.alerts", logger: zap.NewNop()}
	a := testAlert()

	require.NoError(t, p.Publish(context.Background(), a))
	assert.Equal(t, "fraud", ch.exchange)
	assert.Equal(t, "fraud.alerts", ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, a.ID.String(), ch.msg.MessageId)
	assert.NoError(t, p.Close())
}

func TestRecorder(t *testing.T) {
	t.Run("stores published alert", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		next := mocks.NewMockAlertPublisher(ctrl)
		store := mocks.NewMockAlertRepository(ctrl)
		a := testAlert()

		next.EXPECT().Publish(gomock.Any(), a).Return(nil)
		store.EXPECT().Create(gomock.Any(), a).Return(nil)

		assert.NoError(t, NewRecorder(next, store, nil, nil).Publish(context.Background(), a))
	})

	t.Run("store failure is not returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		next := mocks.NewMockAlertPublisher(ctrl)
		store := mocks.NewMockAlertRepository(ctrl)

		next.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
		store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

		assert.NoError(t, NewRecorder(next, store, nil, nil).Publish(context.Background(), testAlert()))
	})

	t.Run("publish failure is returned and still stored", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		next := mocks.NewMockAlertPublisher(ctrl)
		store := mocks.NewMockAlertRepository(ctrl)

		next.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(fraud.ErrAlertPublishFailed)
		store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		err := NewRecorder(next, store, nil, nil).Publish(context.Background(), testAlert())
		assert.ErrorIs(t, err, fraud.ErrAlertPublishFailed)
	})
}

func TestNew_SelectsDriver(t *testing.T) {
	cfg := config.DefaultConfig()

	p, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogPublisher{}, p)

	cfg.Alerts.Driver = "kafka"
	p, err = New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())

	cfg.Alerts.Driver = "smtp"
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}
