// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fjod/coffee_cart/internal/order"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	defaultBuffer = 256
	writeTimeout  = 5 * time.Second
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher is an order.Notifier. Notify only enqueues; a background
// loop writes to Kafka so order operations never wait on the broker.
type KafkaPublisher struct {
	writer MessageWriter
	log    zerolog.Logger
	queue  chan order.Event

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(writer MessageWriter, log zerolog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		writer: writer,
		log:    log.With().Str("component", "order_events").Logger(),
		queue:  make(chan order.Event, defaultBuffer),
		stop:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Notify drops the event with a warning when the queue is full.
func (p *KafkaPublisher) Notify(e order.Event) {
	select {
	case p.queue <- e:
	default:
		p.log.Warn().
			Str("order_id", e.Order.ID).
			Str("event_type", string(e.Type)).
			Msg("event queue full, dropping event")
	}
}

func (p *KafkaPublisher) run() {
	defer p.wg.Done()
	for {
		select {
		case e := <-p.queue:
			p.publish(e)
		case <-p.stop:
			// flush what was queued before Close
			for {
				select {
				case e := <-p.queue:
					p.publish(e)
				default:
					return
				}
			}
		}
	}
}

func (p *KafkaPublisher) publish(e order.Event) {
	msg, err := Message(e)
	if err != nil {
		p.log.Error().Err(err).Str("order_id", e.Order.ID).Msg("failed to encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error().Err(err).Str("order_id", e.Order.ID).Msg("failed to publish event")
		return
	}
	p.log.Debug().Str("order_id", e.Order.ID).Str("event_type", string(e.Type)).Msg("event published")
}

// Message encodes an event keyed by order id so one order's events stay in
// one partition, in order.
func Message(e order.Event) (kafka.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(e.Order.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "session_id", Value: []byte(e.SessionID)},
		},
		Time: e.OccurredAt,
	}, nil
}

// Close flushes queued events and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
	return p.writer.Close()
}
