package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	action    Action
	sessionID string
	orderID   string
}

type mockOrders struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (m *mockOrders) record(a Action, sessionID, orderID string) (*domain.PlacedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call{a, sessionID, orderID})
	if m.err != nil {
		return nil, m.err
	}
	status := domain.OrderStatusConfirmed
	if a == ActionCancel {
		status = domain.OrderStatusCancelled
	}
	return &domain.PlacedOrder{ID: orderID, Code: "CF-260302-0001", Status: status}, nil
}

func (m *mockOrders) AdvanceOrder(_ context.Context, sessionID, orderID string) (*domain.PlacedOrder, error) {
	return m.record(ActionAdvance, sessionID, orderID)
}

func (m *mockOrders) CancelOrder(_ context.Context, sessionID, orderID string) (*domain.PlacedOrder, error) {
	return m.record(ActionCancel, sessionID, orderID)
}

func (m *mockOrders) snapshot() []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]call(nil), m.calls...)
}

// chanReader hands out queued messages, then blocks until ctx is done.
type chanReader struct {
	messages chan kafka.Message
	closed   bool
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) Close() error {
	r.closed = true
	return nil
}

func TestHandle(t *testing.T) {
	orders := &mockOrders{}
	c := NewFulfillmentConsumer(orders, &chanReader{}, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, c.Handle(ctx, []byte(`{"session_id":"s1","order_id":"o1","action":"advance"}`)))
	require.NoError(t, c.Handle(ctx, []byte(`{"session_id":"s1","order_id":"o1","action":"cancel"}`)))

	assert.Equal(t, []call{
		{ActionAdvance, "s1", "o1"},
		{ActionCancel, "s1", "o1"},
	}, orders.snapshot())
}

func TestHandle_Invalid(t *testing.T) {
	orders := &mockOrders{}
	c := NewFulfillmentConsumer(orders, &chanReader{}, zerolog.Nop())
	ctx := context.Background()

	assert.Error(t, c.Handle(ctx, []byte(`not json`)))
	assert.Error(t, c.Handle(ctx, []byte(`{"order_id":"o1","action":"advance"}`)))
	assert.ErrorIs(t, c.Handle(ctx, []byte(`{"session_id":"s1","order_id":"o1","action":"refund"}`)), ErrUnknownAction)
	assert.Empty(t, orders.snapshot())
}

func TestHandle_PropagatesOrderErrors(t *testing.T) {
	orders := &mockOrders{err: domain.ErrIllegalTransition}
	c := NewFulfillmentConsumer(orders, &chanReader{}, zerolog.Nop())

	err := c.Handle(context.Background(), []byte(`{"session_id":"s1","order_id":"o1","action":"advance"}`))
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestRun_ConsumesUntilCancelled(t *testing.T) {
	orders := &mockOrders{}
	reader := &chanReader{messages: make(chan kafka.Message, 3)}
	reader.messages <- kafka.Message{Value: []byte(`{"session_id":"s1","order_id":"o1","action":"advance"}`)}
	reader.messages <- kafka.Message{Value: []byte(`garbage`)}
	reader.messages <- kafka.Message{Value: []byte(`{"session_id":"s2","order_id":"o2","action":"cancel"}`)}
	c := NewFulfillmentConsumer(orders, reader, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(orders.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}

	c.Close()
	assert.True(t, reader.closed)
}

func TestRun_ReadErrorsDoNotStopLoop(t *testing.T) {
	reader := &flakyReader{failures: 2}
	orders := &mockOrders{}
	c := NewFulfillmentConsumer(orders, reader, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	require.Eventually(t, func() bool { return len(orders.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
}

type flakyReader struct {
	mu       sync.Mutex
	failures int
	served   bool
}

func (r *flakyReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return kafka.Message{}, errors.New("broker unavailable")
	}
	if !r.served {
		r.served = true
		return kafka.Message{Value: []byte(`{"session_id":"s1","order_id":"o1","action":"advance"}`)}, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	r.mu.Lock()
	return kafka.Message{}, ctx.Err()
}

func (r *flakyReader) Close() error { return nil }
