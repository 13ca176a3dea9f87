// Package session hosts the engine for one shopper. A Session owns a cart,
// a delivery resolver, a promotion engine and an order manager, serializes
// every operation on them and persists the result through a storage.Store.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/coffee_cart/internal/cart"
	"github.com/fjod/coffee_cart/internal/catalog"
	"github.com/fjod/coffee_cart/internal/clock"
	"github.com/fjod/coffee_cart/internal/delivery"
	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/fjod/coffee_cart/internal/geocode"
	"github.com/fjod/coffee_cart/internal/order"
	"github.com/fjod/coffee_cart/internal/promotion"
	"github.com/fjod/coffee_cart/internal/storage"
	"github.com/rs/zerolog"
)

// Deps are shared by every session. Catalog and branches are read-only.
type Deps struct {
	Catalog    *catalog.Catalog
	Store      storage.Store
	Geocoder   geocode.Geocoder
	Clock      clock.Clock
	VATPercent int64
	// Notifier receives order events of every session. Optional.
	Notifier order.Notifier
	Logger   zerolog.Logger
}

type Session struct {
	id   string
	deps Deps
	log  zerolog.Logger

	mu        sync.Mutex
	cart      *cart.Cart
	resolver  *delivery.Resolver
	promos    *promotion.Engine
	orders    *order.Manager
	addresses addressBook
	listeners map[int]Listener
	nextID    int

	// lastSeen is the unix nano time of the latest Registry.Get.
	lastSeen atomic.Int64
}

func newSession(id string, deps Deps) (*Session, error) {
	promos, err := promotion.NewEngine(deps.Catalog.Promotions)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	s := &Session{
		id:        id,
		deps:      deps,
		log:       deps.Logger.With().Str("session_id", id).Logger(),
		cart:      cart.New(deps.Catalog.Menu(), deps.Clock),
		resolver:  delivery.NewResolver(deps.Catalog.Branches, deps.Clock),
		promos:    promos,
		orders:    order.NewManager(deps.Clock, deps.VATPercent),
		listeners: make(map[int]Listener),
	}
	if deps.Notifier != nil {
		s.orders.AddNotifier(order.NotifierFunc(func(e order.Event) {
			e.SessionID = id
			deps.Notifier.Notify(e)
		}))
	}
	return s, nil
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// hasOpenOrders reports whether any order still awaits fulfillment.
func (s *Session) hasOpenOrders() bool {
	for _, o := range s.orders.List() {
		if !o.Status.IsTerminal() {
			return true
		}
	}
	return false
}

func (s *Session) ID() string {
	return s.id
}

// Subscribe registers l for every later change. The returned func removes it.
func (s *Session) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// update runs fn under the session lock. On success it recomputes derived
// values, persists the touched blobs and notifies listeners after unlocking.
func (s *Session) update(ctx context.Context, fn func() (Part, error)) error {
	s.mu.Lock()
	parts, err := fn()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.recompute()
	s.persist(ctx, parts)
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	if parts == 0 {
		return nil
	}
	change := Change{SessionID: s.id, Parts: parts}
	for _, l := range listeners {
		l(change)
	}
	return nil
}

// recompute refreshes the values derived from the cart subtotal and the fee.
func (s *Session) recompute() {
	s.resolver.UpdateSubtotal(s.cart.Subtotal())
	s.promos.Reprice(s.quote())
}

func (s *Session) quote() promotion.Quote {
	return promotion.Quote{
		Subtotal:    s.cart.Subtotal(),
		DeliveryFee: s.resolver.DeliveryFee(),
		Mode:        s.resolver.Mode(),
	}
}

// View is a consistent read of the whole session.
type View struct {
	SessionID  string                          `json:"session_id"`
	Cart       cart.Snapshot                   `json:"cart"`
	Resolution domain.Resolution               `json:"resolution"`
	Validation *domain.AddressValidationResult `json:"last_validation,omitempty"`
	Promotion  *domain.AppliedPromotion        `json:"promotion,omitempty"`
	Totals     order.Totals                    `json:"totals"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	res := s.resolver.Snapshot()
	v := View{
		SessionID:  s.id,
		Cart:       s.cart.Snapshot(),
		Resolution: res,
	}
	if r, ok := s.resolver.LastValidation(); ok {
		v.Validation = &r
	}
	var discount int64
	if p, ok := s.promos.Applied(); ok {
		v.Promotion = &p
		discount = p.Discount
	}
	v.Totals = order.ComputeTotals(v.Cart.Subtotal, res.DeliveryFee, discount, s.orders.VATPercent())
	return v
}

func (s *Session) AddItem(ctx context.Context, productID string, sel domain.VariantSelection, qty int) (domain.CartLine, error) {
	var line domain.CartLine
	err := s.update(ctx, func() (Part, error) {
		p, err := s.deps.Catalog.Product(productID)
		if err != nil {
			return 0, err
		}
		line, err = s.cart.AddItem(p, sel, qty)
		if err != nil {
			return 0, err
		}
		return PartCart, nil
	})
	return line, err
}

func (s *Session) UpdateQuantity(ctx context.Context, key string, qty int) error {
	return s.update(ctx, func() (Part, error) {
		return PartCart, s.cart.UpdateQuantity(key, qty)
	})
}

func (s *Session) Increment(ctx context.Context, key string) error {
	return s.update(ctx, func() (Part, error) {
		return PartCart, s.cart.Increment(key)
	})
}

func (s *Session) Decrement(ctx context.Context, key string) error {
	return s.update(ctx, func() (Part, error) {
		return PartCart, s.cart.Decrement(key)
	})
}

func (s *Session) RemoveItem(ctx context.Context, key string) error {
	return s.update(ctx, func() (Part, error) {
		s.cart.RemoveItem(key)
		return PartCart, nil
	})
}

func (s *Session) ClearCart(ctx context.Context) error {
	return s.update(ctx, func() (Part, error) {
		s.cart.Clear()
		return PartCart, nil
	})
}

func (s *Session) SetMode(ctx context.Context, mode domain.FulfillmentMode) error {
	return s.update(ctx, func() (Part, error) {
		return PartResolution, s.resolver.SetMode(mode)
	})
}

func (s *Session) SelectBranch(ctx context.Context, branchID string) error {
	return s.update(ctx, func() (Part, error) {
		return PartResolution, s.resolver.SelectBranch(branchID)
	})
}

// SetDeliveryAddress applies an address whose coordinate the caller already
// knows, or nil when it has none.
func (s *Session) SetDeliveryAddress(ctx context.Context, raw string, coord *domain.Coordinate) domain.AddressValidationResult {
	var result domain.AddressValidationResult
	_ = s.update(ctx, func() (Part, error) {
		result = s.resolver.SetDeliveryAddress(raw, coord)
		if !result.IsValid {
			return 0, nil
		}
		return PartResolution, nil
	})
	return result
}

// ResolveAddress geocodes raw outside the session lock, then applies it. An
// address the geocoder cannot place is an invalid result, not an error; only
// a cancelled ctx is.
func (s *Session) ResolveAddress(ctx context.Context, raw string) (domain.AddressValidationResult, error) {
	var coord *domain.Coordinate
	if strings.TrimSpace(raw) != "" {
		c, err := s.deps.Geocoder.Resolve(ctx, raw)
		switch {
		case err == nil:
			coord = &c
		case ctx.Err() != nil:
			return domain.AddressValidationResult{}, ctx.Err()
		case !errors.Is(err, geocode.ErrUnresolved):
			s.log.Warn().Err(err).Str("address", raw).Msg("geocoder failed")
		}
	}
	return s.SetDeliveryAddress(ctx, raw, coord), nil
}

// UseSavedAddress applies an address book entry.
func (s *Session) UseSavedAddress(ctx context.Context, id string) (domain.AddressValidationResult, error) {
	s.mu.Lock()
	saved, ok := s.addresses.get(id)
	s.mu.Unlock()
	if !ok {
		return domain.AddressValidationResult{}, fmt.Errorf("%w: %s", ErrAddressNotFound, id)
	}
	if saved.Coordinate == nil {
		return s.ResolveAddress(ctx, saved.Raw)
	}
	c := *saved.Coordinate
	return s.SetDeliveryAddress(ctx, saved.Raw, &c), nil
}

func (s *Session) ApplyPromo(ctx context.Context, code string) (domain.AppliedPromotion, error) {
	var applied domain.AppliedPromotion
	err := s.update(ctx, func() (Part, error) {
		var err error
		applied, err = s.promos.ApplyCode(code, s.quote())
		return PartPromotion, err
	})
	if err != nil {
		return domain.AppliedPromotion{}, err
	}
	return applied, nil
}

func (s *Session) RemovePromo(ctx context.Context) error {
	return s.update(ctx, func() (Part, error) {
		s.promos.RemovePromo()
		return PartPromotion, nil
	})
}

func (s *Session) AppliedPromotion() (domain.AppliedPromotion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promos.Applied()
}

// Checkout is the customer-supplied part of placement.
type Checkout struct {
	Customer      domain.CustomerInfo  `json:"customer"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Note          string               `json:"note"`
	// AddressLabel names the address book entry saved for delivery orders.
	AddressLabel string `json:"address_label"`
}

// PlaceOrder snapshots the session into a placed order. On success the cart
// is cleared, the promotion consumed and a delivery address saved to the
// address book. On failure nothing changes.
func (s *Session) PlaceOrder(ctx context.Context, in Checkout) (*domain.PlacedOrder, error) {
	var placed *domain.PlacedOrder
	err := s.update(ctx, func() (Part, error) {
		req := order.PlaceRequest{
			Lines:         s.cart.Lines(),
			Resolution:    s.resolver.Snapshot(),
			Customer:      in.Customer,
			PaymentMethod: in.PaymentMethod,
			Note:          in.Note,
		}
		if p, ok := s.promos.Applied(); ok {
			req.Promotion = &p
		}

		var err error
		placed, err = s.orders.PlaceOrder(req)
		if err != nil {
			return 0, err
		}

		parts := PartCart | PartPromotion | PartOrders
		s.cart.Clear()
		s.promos.RemovePromo()
		if placed.DeliveryAddress != nil {
			s.addresses.upsert(in.AddressLabel, *placed.DeliveryAddress, placed.CreatedAt)
			parts |= PartAddressBook
		}
		return parts, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("order_id", placed.ID).
		Str("order_code", placed.Code).
		Str("mode", placed.Mode.String()).
		Int64("total", placed.Total).
		Msg("order placed")
	return placed, nil
}

func (s *Session) Orders() []*domain.PlacedOrder {
	return s.orders.List()
}

func (s *Session) Order(id string) (*domain.PlacedOrder, error) {
	return s.orders.Get(id)
}

func (s *Session) AdvanceOrder(ctx context.Context, id string) (*domain.PlacedOrder, error) {
	var updated *domain.PlacedOrder
	err := s.update(ctx, func() (Part, error) {
		var err error
		updated, err = s.orders.AdvanceStatus(id)
		return PartOrders, err
	})
	return updated, err
}

// AdvanceOrderFrom advances the order only if it is still in expected.
func (s *Session) AdvanceOrderFrom(ctx context.Context, id string, expected domain.OrderStatus) (*domain.PlacedOrder, error) {
	var updated *domain.PlacedOrder
	err := s.update(ctx, func() (Part, error) {
		var err error
		updated, err = s.orders.AdvanceStatusFrom(id, expected)
		return PartOrders, err
	})
	return updated, err
}

func (s *Session) CancelOrder(ctx context.Context, id string) (*domain.PlacedOrder, error) {
	var updated *domain.PlacedOrder
	err := s.update(ctx, func() (Part, error) {
		var err error
		updated, err = s.orders.Cancel(id)
		return PartOrders, err
	})
	return updated, err
}

func (s *Session) AddressBook() []SavedAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addresses.list()
}

// SaveAddress stores an address without applying it.
func (s *Session) SaveAddress(ctx context.Context, label, raw string, coord *domain.Coordinate) (SavedAddress, error) {
	var saved SavedAddress
	err := s.update(ctx, func() (Part, error) {
		if strings.TrimSpace(raw) == "" {
			return 0, fmt.Errorf("%w: empty address", domain.ErrInvalidSelection)
		}
		saved = s.addresses.upsert(label, domain.DeliveryAddress{Raw: raw, Coordinate: coord}, s.deps.Clock.Now())
		return PartAddressBook, nil
	})
	return saved, err
}

func (s *Session) RemoveAddress(ctx context.Context, id string) error {
	return s.update(ctx, func() (Part, error) {
		if !s.addresses.remove(id) {
			return 0, fmt.Errorf("%w: %s", ErrAddressNotFound, id)
		}
		return PartAddressBook, nil
	})
}

// Branches lists every branch with its open state at the session clock.
func (s *Session) Branches() []BranchStatus {
	now := s.deps.Clock.Now()
	branches := s.deps.Catalog.Branches
	out := make([]BranchStatus, 0, len(branches))
	for _, b := range branches {
		out = append(out, BranchStatus{Branch: b, Open: b.IsActive && delivery.IsOpen(b.Hours, now)})
	}
	slices.SortFunc(out, func(a, b BranchStatus) int { return strings.Compare(a.Branch.ID, b.Branch.ID) })
	return out
}

type BranchStatus struct {
	Branch domain.Branch `json:"branch"`
	Open   bool          `json:"open"`
}
