package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/fjod/coffee_cart/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var district1 = domain.Coordinate{Lat: 10.7769, Lng: 106.7009}

func TestStatic_Resolve(t *testing.T) {
	g := NewStatic([]Entry{
		{Match: "Le Loi", Coordinate: district1},
		{Match: "  ", Coordinate: domain.Coordinate{Lat: 1, Lng: 1}},
	})
	ctx := context.Background()

	c, err := g.Resolve(ctx, "12  LE LOI, Ben Nghe")
	require.NoError(t, err)
	assert.Equal(t, district1, c)

	c, err = g.Resolve(ctx, " 10.80, 106.65 ")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinate{Lat: 10.80, Lng: 106.65}, c)

	for _, raw := range []string{"", "unknown street", "95, 200"} {
		_, err = g.Resolve(ctx, raw)
		assert.ErrorIs(t, err, ErrUnresolved, raw)
	}
}

func TestStatic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStatic(nil).Resolve(ctx, "10,10")
	assert.ErrorIs(t, err, context.Canceled)
}

type geocoderFunc func(ctx context.Context, raw string) (domain.Coordinate, error)

func (f geocoderFunc) Resolve(ctx context.Context, raw string) (domain.Coordinate, error) {
	return f(ctx, raw)
}

func TestGuarded_Timeout(t *testing.T) {
	slow := geocoderFunc(func(ctx context.Context, _ string) (domain.Coordinate, error) {
		<-ctx.Done()
		return domain.Coordinate{}, ctx.Err()
	})
	g := NewGuarded(slow, 10*time.Millisecond, circuitbreaker.DefaultSettings())

	_, err := g.Resolve(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuarded_OpensOnFailures(t *testing.T) {
	calls := 0
	broken := geocoderFunc(func(context.Context, string) (domain.Coordinate, error) {
		calls++
		return domain.Coordinate{}, errors.New("upstream 503")
	})
	g := NewGuarded(broken, time.Second, circuitbreaker.Settings{FailureThreshold: 2, OpenTimeout: time.Minute})

	for i := 0; i < 4; i++ {
		_, err := g.Resolve(context.Background(), "x")
		assert.ErrorIs(t, err, ErrUnresolved)
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, "open", g.BreakerState())
}

func TestGuarded_UnresolvedDoesNotTrip(t *testing.T) {
	g := NewGuarded(NewStatic(nil), time.Second, circuitbreaker.Settings{FailureThreshold: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := g.Resolve(context.Background(), "nowhere")
		assert.ErrorIs(t, err, ErrUnresolved)
	}
	assert.Equal(t, "closed", g.BreakerState())

	c, err := g.Resolve(context.Background(), "1,2")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinate{Lat: 1, Lng: 2}, c)
}
