package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSweepInterval is how often idle sessions are swept when none is configured.
const DefaultSweepInterval = time.Minute

// IdleEvictor periodically drops sessions that have been idle for longer
// than the configured TTL. Evicted sessions reload from the store on their
// next Get.
type IdleEvictor struct {
	registry *Registry
	idle     time.Duration
	interval time.Duration
	log      zerolog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewIdleEvictor(registry *Registry, idle, interval time.Duration, log zerolog.Logger) *IdleEvictor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &IdleEvictor{
		registry: registry,
		idle:     idle,
		interval: interval,
		log:      log.With().Str("component", "idle_evictor").Logger(),
		stop:     make(chan struct{}),
	}
}

// Start launches the sweep loop. A zero idle time keeps sessions forever.
func (e *IdleEvictor) Start() {
	if e.idle <= 0 {
		e.log.Info().Msg("idle eviction disabled")
		return
	}
	e.wg.Add(1)
	go e.loop()
}

func (e *IdleEvictor) loop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Sweep()
		case <-e.stop:
			return
		}
	}
}

// Sweep runs one eviction pass and returns how many sessions it dropped.
func (e *IdleEvictor) Sweep() int {
	if e.idle <= 0 {
		return 0
	}
	evicted := e.registry.EvictIdle(e.idle)
	if len(evicted) > 0 {
		e.log.Info().
			Strs("session_ids", evicted).
			Int("remaining", e.registry.Len()).
			Msg("evicted idle sessions")
	}
	return len(evicted)
}

func (e *IdleEvictor) Close() error {
	e.once.Do(func() {
		close(e.stop)
	})
	e.wg.Wait()
	return nil
}
