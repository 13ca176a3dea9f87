package geocode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/fjod/coffee_cart/pkg/circuitbreaker"
)

const DefaultTimeout = 2 * time.Second

// Guarded time-boxes every call and stops calling a failing geocoder for a
// while. Timeouts and an open breaker are reported as ErrUnresolved.
type Guarded struct {
	next    Geocoder
	timeout time.Duration
	breaker *circuitbreaker.Breaker[domain.Coordinate]
}

func NewGuarded(next Geocoder, timeout time.Duration, settings circuitbreaker.Settings) *Guarded {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrUnresolved)
	}
	return &Guarded{
		next:    next,
		timeout: timeout,
		breaker: circuitbreaker.New[domain.Coordinate]("geocoder", settings),
	}
}

func (g *Guarded) Resolve(ctx context.Context, raw string) (domain.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	c, err := g.breaker.Execute(func() (domain.Coordinate, error) {
		return g.next.Resolve(ctx, raw)
	})
	if err == nil {
		return c, nil
	}
	if errors.Is(err, ErrUnresolved) {
		return domain.Coordinate{}, err
	}
	return domain.Coordinate{}, fmt.Errorf("%w: %w", ErrUnresolved, err)
}

func (g *Guarded) BreakerState() string {
	return g.breaker.State()
}
