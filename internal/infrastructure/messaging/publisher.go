package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/infrastructure/metrics"
	"fraud-scoring-service/internal/pkg/config"
	"fraud-scoring-service/internal/pkg/logger"
)

// Publisher is an alert sink that owns a broker connection
type Publisher interface {
	fraud.AlertPublisher
	Close() error
}

// New connects the publisher selected by cfg.Alerts.Driver
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Publisher, error) {
	switch cfg.Alerts.Driver {
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.FraudAlertsTopic, log), nil
	case "nats":
		return NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, log)
	case "rabbitmq":
		return NewRabbitMQPublisher(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey, log)
	case "log", "":
		return NewLogPublisher(log), nil
	default:
		return nil, fmt.Errorf("unknown alerts driver %q", cfg.Alerts.Driver)
	}
}

func encode(alert *fraud.Alert) ([]byte, error) {
	body, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %w", fraud.ErrAlertPublishFailed, err)
	}
	return body, nil
}

// LogPublisher writes alerts to the log. It is the standalone default.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.OrNop(log).Named("alerts")}
}

func (p *LogPublisher) Publish(ctx context.Context, alert *fraud.Alert) error {
	p.logger.Warn("fraud alert",
		zap.String("alert_id", alert.ID.String()),
		zap.String("alert_type", string(alert.Type)),
		zap.String("severity", string(alert.Severity)),
		zap.String("transaction_id", alert.TransactionID.String()),
		zap.String("user_id", alert.UserID.String()),
		zap.String("amount", alert.Amount.String()),
		zap.Float64("fraud_probability", alert.Probability),
		zap.Strings("reasons", alert.Reasons),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder publishes through next and stores every alert in the audit table.
// A storage failure is logged; only the publish result is returned.
type Recorder struct {
	next    fraud.AlertPublisher
	store   fraud.AlertRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewRecorder(next fraud.AlertPublisher, store fraud.AlertRepository, m *metrics.Metrics, log *zap.Logger) *Recorder {
	return &Recorder{
		next:    next,
		store:   store,
		metrics: m,
		logger:  logger.OrNop(log).Named("alert_recorder"),
	}
}

func (r *Recorder) Publish(ctx context.Context, alert *fraud.Alert) error {
	err := r.next.Publish(ctx, alert)
	r.metrics.Alert(string(alert.Type), string(alert.Severity), err)

	if r.store != nil {
		if storeErr := r.store.Create(ctx, alert); storeErr != nil {
			r.logger.Warn("failed to store alert",
				zap.String("alert_id", alert.ID.String()),
				zap.Error(storeErr),
			)
		}
	}
	return err
}
