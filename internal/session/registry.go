package session

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/fjod/coffee_cart/internal/domain"
	"golang.org/x/sync/singleflight"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Registry isolates state per session key. The first Get of a key restores
// it from the store; concurrent first Gets share one load.
type Registry struct {
	deps Deps

	mu       sync.RWMutex
	sessions map[string]*Session
	group    singleflight.Group
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

func ValidID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch(r.deps.Clock.Now())
		return s, nil
	}

	v, err, _ := r.group.Do(id, func() (interface{}, error) {
		r.mu.RLock()
		existing, ok := r.sessions[id]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		s, err := newSession(id, r.deps)
		if err != nil {
			return nil, err
		}
		if err := s.restore(ctx); err != nil {
			return nil, fmt.Errorf("restore session %s: %w", id, err)
		}

		r.mu.Lock()
		r.sessions[id] = s
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	s = v.(*Session)
	s.touch(r.deps.Clock.Now())
	return s, nil
}

// Active returns the loaded sessions ordered by id.
func (r *Registry) Active() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Evict drops a session from memory. Its persisted blobs stay.
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// EvictIdle drops every session not fetched for at least idle. Sessions with
// an order still in fulfillment stay loaded so auto-advance can reach them.
func (r *Registry) EvictIdle(idle time.Duration) []string {
	now := r.deps.Clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for id, s := range r.sessions {
		if s.idleFor(now) < idle || s.hasOpenOrders() {
			continue
		}
		delete(r.sessions, id)
		evicted = append(evicted, id)
	}
	sort.Strings(evicted)
	return evicted
}

// Len is the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) AdvanceOrder(ctx context.Context, sessionID, orderID string) (*domain.PlacedOrder, error) {
	s, err := r.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.AdvanceOrder(ctx, orderID)
}

func (r *Registry) CancelOrder(ctx context.Context, sessionID, orderID string) (*domain.PlacedOrder, error) {
	s, err := r.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.CancelOrder(ctx, orderID)
}
