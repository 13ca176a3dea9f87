// Package consumer applies fulfillment updates from an external feed to
// placed orders.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var ErrUnknownAction = errors.New("unknown fulfillment action")

type Action string

const (
	ActionAdvance Action = "advance"
	ActionCancel  Action = "cancel"
)

// FulfillmentEvent is one message on the fulfillment topic.
type FulfillmentEvent struct {
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
	Action    Action `json:"action"`
}

// OrderActions is implemented by session.Registry.
type OrderActions interface {
	AdvanceOrder(ctx context.Context, sessionID, orderID string) (*domain.PlacedOrder, error)
	CancelOrder(ctx context.Context, sessionID, orderID string) (*domain.PlacedOrder, error)
}

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type FulfillmentConsumer struct {
	orders OrderActions
	reader MessageReader
	log    zerolog.Logger
}

func NewKafkaReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
}

func NewFulfillmentConsumer(orders OrderActions, reader MessageReader, log zerolog.Logger) *FulfillmentConsumer {
	return &FulfillmentConsumer{
		orders: orders,
		reader: reader,
		log:    log.With().Str("component", "fulfillment_consumer").Logger(),
	}
}

// Run reads until ctx is cancelled.
func (c *FulfillmentConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *FulfillmentConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error().Err(err).Msg("error closing kafka reader")
	}
}

func (c *FulfillmentConsumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.log.Error().Err(err).Msg("error reading message")
		return
	}

	if err := c.Handle(ctx, m.Value); err != nil {
		c.log.Warn().
			Err(err).
			Str("key", string(m.Key)).
			Int64("offset", m.Offset).
			Msg("fulfillment event not applied")
	}
}

// Handle applies one encoded FulfillmentEvent. Stale transitions on orders
// that already reached a terminal status are reported, not retried.
func (c *FulfillmentConsumer) Handle(ctx context.Context, value []byte) error {
	var event FulfillmentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("error parsing message: %w", err)
	}
	if event.SessionID == "" || event.OrderID == "" {
		return fmt.Errorf("missing session_id or order_id in %s", string(value))
	}

	var (
		updated *domain.PlacedOrder
		err     error
	)
	switch event.Action {
	case ActionAdvance:
		updated, err = c.orders.AdvanceOrder(ctx, event.SessionID, event.OrderID)
	case ActionCancel:
		updated, err = c.orders.CancelOrder(ctx, event.SessionID, event.OrderID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, event.Action)
	}
	if err != nil {
		return fmt.Errorf("%s order %s: %w", event.Action, event.OrderID, err)
	}

	c.log.Info().
		Str("session_id", event.SessionID).
		Str("order_code", updated.Code).
		Str("status", updated.Status.String()).
		Msg("fulfillment event applied")
	return nil
}
