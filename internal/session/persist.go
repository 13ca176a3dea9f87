package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/coffee_cart/internal/delivery"
	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/fjod/coffee_cart/internal/storage"
)

const persistTimeout = 3 * time.Second

type cartBlob struct {
	Lines []domain.CartLine `json:"lines"`
}

type resolutionBlob struct {
	State     delivery.State `json:"state"`
	PromoCode string         `json:"promo_code,omitempty"`
}

type ordersBlob struct {
	Orders      []domain.PlacedOrder `json:"orders"`
	AddressBook []SavedAddress       `json:"address_book"`
}

// persist writes the blobs behind parts. A failed write is logged and the
// in-memory state stays authoritative.
func (s *Session) persist(ctx context.Context, parts Part) {
	if s.deps.Store == nil || parts == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if parts.Has(PartCart) {
		s.save(ctx, storage.CartKey(s.id), cartBlob{Lines: s.cart.Lines()})
	}
	if parts.Has(PartResolution | PartPromotion) {
		blob := resolutionBlob{State: s.resolver.State()}
		if p, ok := s.promos.Applied(); ok {
			blob.PromoCode = p.Code
		}
		s.save(ctx, storage.ResolutionKey(s.id), blob)
	}
	if parts.Has(PartOrders | PartAddressBook) {
		list := s.orders.List()
		blob := ordersBlob{
			Orders:      make([]domain.PlacedOrder, len(list)),
			AddressBook: s.addresses.list(),
		}
		for i, o := range list {
			blob.Orders[i] = *o
		}
		s.save(ctx, storage.OrdersKey(s.id), blob)
	}
}

func (s *Session) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to encode session blob")
		return
	}
	if err := s.deps.Store.Save(ctx, key, data); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to persist session blob")
	}
}

// restore loads whatever was persisted for the session. Missing blobs leave
// the defaults; undecodable ones are logged and skipped.
func (s *Session) restore(ctx context.Context) error {
	if s.deps.Store == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var c cartBlob
	ok, err := s.load(ctx, storage.CartKey(s.id), &c)
	if err != nil {
		return err
	}
	if ok {
		s.cart.Restore(c.Lines)
	}

	var r resolutionBlob
	ok, err = s.load(ctx, storage.ResolutionKey(s.id), &r)
	if err != nil {
		return err
	}
	if ok {
		s.resolver.Restore(r.State)
	}
	s.recompute()
	if r.PromoCode != "" {
		if _, err := s.promos.ApplyCode(r.PromoCode, s.quote()); err != nil {
			s.log.Warn().Err(err).Str("code", r.PromoCode).Msg("dropped persisted promotion")
		}
	}

	var o ordersBlob
	ok, err = s.load(ctx, storage.OrdersKey(s.id), &o)
	if err != nil {
		return err
	}
	if ok {
		s.orders.Restore(o.Orders)
		s.addresses.entries = o.AddressBook
	}
	return nil
}

func (s *Session) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.deps.Store.Load(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("ignoring undecodable session blob")
		return false, nil
	}
	return true, nil
}
