package messaging

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/domain/fraud"
	"fraud-scoring-service/internal/pkg/logger"
)

type natsConn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATSPublisher publishes alerts on a subject. Publish waits for the server flush.
type NATSPublisher struct {
	conn    natsConn
	subject string
	logger  *zap.Logger
}

func NewNATSPublisher(url, subject string, log *zap.Logger) (*NATSPublisher, error) {
	l := logger.OrNop(log).Named("nats")
	conn, err := nats.Connect(url,
		nats.Name("fraud-scoring-service"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			l.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject, logger: l}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, alert *fraud.Alert) error {
	body, err := encode(alert)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, body); err != nil {
		return fmt.Errorf("%w: nats: %w", fraud.ErrAlertPublishFailed, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("%w: nats flush: %w", fraud.ErrAlertPublishFailed, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
