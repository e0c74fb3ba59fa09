package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"libmarket/internal/config"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects published by the marketplace
const (
	SubjectOfferCreated     = "market.offer.created"
	SubjectOfferResponded   = "market.offer.responded"
	SubjectCartCheckedOut   = "market.cart.checked_out"
	SubjectUserVerified     = "market.user.verified"
	SubjectUserRejected     = "market.user.rejected"
	SubjectProductModerated = "market.product.moderated"
)

const (
	connectWait   = 5 * time.Second
	maxReconnects = 5
	reconnectWait = 2 * time.Second
)

// Publisher emits domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, subject string, event interface{}) error
	Close()
}

type natsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewPublisher connects to NATS. An empty URL yields a publisher that drops
// every event.
func NewPublisher(cfg config.NATSConfig, logger *zap.Logger) (Publisher, error) {
	if cfg.URL == "" {
		logger.Info("NATS not configured, domain events are disabled")
		return NopPublisher{}, nil
	}

	opts := []nats.Option{
		nats.Name("libmarket API"),
		nats.Timeout(connectWait),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}

	return &natsPublisher{conn: nc, logger: logger}, nil
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for subject %s: %w", subject, err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to NATS subject %s: %w", subject, err)
	}

	return nil
}

func (p *natsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("NATS drain failed", zap.Error(err))
		p.conn.Close()
	}
}

// NopPublisher discards events
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}

func (NopPublisher) Close() {}
