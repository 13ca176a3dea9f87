// Package scheduler drives placed orders through their fulfillment sequence
// on a timer, standing in for a real fulfillment feed.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/coffee_cart/internal/clock"
	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultTick is how often the advancer scans when none is configured.
const DefaultTick = 5 * time.Second

// OrderBook is one session's orders. AdvanceOrderFrom must fail when the
// order has left expected since it was listed.
type OrderBook interface {
	Orders() []*domain.PlacedOrder
	AdvanceOrderFrom(ctx context.Context, id string, expected domain.OrderStatus) (*domain.PlacedOrder, error)
}

type Source interface {
	OrderBooks() []OrderBook
}

type SourceFunc func() []OrderBook

func (f SourceFunc) OrderBooks() []OrderBook { return f() }

// AutoAdvancer moves every non-terminal order one step once its status has
// been unchanged for delay.
type AutoAdvancer struct {
	source Source
	clock  clock.Clock
	delay  time.Duration
	tick   time.Duration
	log    zerolog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewAutoAdvancer(source Source, clk clock.Clock, delay, tick time.Duration, log zerolog.Logger) *AutoAdvancer {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &AutoAdvancer{
		source: source,
		clock:  clk,
		delay:  delay,
		tick:   tick,
		log:    log.With().Str("component", "auto_advancer").Logger(),
		stop:   make(chan struct{}),
	}
}

// Start launches the background loop. A zero delay disables auto-advance.
func (a *AutoAdvancer) Start() {
	if a.delay <= 0 {
		a.log.Info().Msg("auto-advance disabled")
		return
	}
	a.wg.Add(1)
	go a.loop()
}

func (a *AutoAdvancer) loop() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.Tick(context.Background())
		case <-a.stop:
			return
		}
	}
}

// Tick advances every due order by one step and returns how many moved.
func (a *AutoAdvancer) Tick(ctx context.Context) int {
	now := a.clock.Now()
	advanced := 0
	for _, book := range a.source.OrderBooks() {
		for _, o := range book.Orders() {
			if o.Status.IsTerminal() || now.Sub(o.StatusUpdatedAt) < a.delay {
				continue
			}
			updated, err := book.AdvanceOrderFrom(ctx, o.ID, o.Status)
			if err != nil {
				// a concurrent cancel or advance got there first
				a.log.Debug().Err(err).Str("order_id", o.ID).Msg("skip auto-advance")
				continue
			}
			advanced++
			a.log.Info().
				Str("order_code", updated.Code).
				Str("from", o.Status.String()).
				Str("to", updated.Status.String()).
				Msg("order auto-advanced")
		}
	}
	return advanced
}

// Close stops the loop and waits for it to finish.
func (a *AutoAdvancer) Close() error {
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
	return nil
}
