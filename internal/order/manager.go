package order

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fjod/coffee_cart/internal/clock"
	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultVATPercent applies when the host does not configure one.
const DefaultVATPercent = 8

// Order codes are CF-YYMMDD-NNNN with NNNN counted per manager, so a code is
// unique within one customer session only. The order ID is the storefront-wide key.
const codePrefix = "CF"

// PlaceRequest is everything placement snapshots. Lines come from the cart,
// Resolution from the delivery resolver and Promotion from the promotion engine.
type PlaceRequest struct {
	Lines         []domain.CartLine
	Resolution    domain.Resolution
	Promotion     *domain.AppliedPromotion
	Customer      domain.CustomerInfo
	PaymentMethod domain.PaymentMethod
	Note          string
}

// Manager owns placed orders. Orders are only ever mutated through
// AdvanceStatus, AdvanceStatusFrom and Cancel.
type Manager struct {
	mu         sync.RWMutex
	clock      clock.Clock
	vatPercent int64
	orders     map[string]*domain.PlacedOrder
	seq        int

	notifiers []Notifier
}

func NewManager(clk clock.Clock, vatPercent int64) *Manager {
	if vatPercent < 0 {
		vatPercent = DefaultVATPercent
	}
	return &Manager{
		clock:      clk,
		vatPercent: vatPercent,
		orders:     make(map[string]*domain.PlacedOrder),
	}
}

func (m *Manager) VATPercent() int64 {
	return m.vatPercent
}

// AddNotifier registers n for every subsequent event.
func (m *Manager) AddNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers = append(m.notifiers, n)
}

// Check reports the first failed placement precondition, or nil.
func Check(req PlaceRequest) error {
	res := req.Resolution
	if !res.Mode.Valid() {
		return fmt.Errorf("place order: %w: %s", domain.ErrInvalidMode, res.Mode)
	}
	if res.BranchID == "" {
		return domain.NotPlaceable(domain.ReasonNoBranch)
	}
	if !res.BranchOpen {
		return domain.NotPlaceable(domain.ReasonBranchClosed)
	}
	if res.Mode == domain.ModeDelivery && (!res.AddressResolved || res.Address == nil) {
		return domain.NotPlaceable(domain.ReasonAddressUnresolved)
	}
	if len(req.Lines) == 0 {
		return domain.NotPlaceable(domain.ReasonEmptyCart)
	}
	if !validContact(req.Customer) {
		return domain.NotPlaceable(domain.ReasonInvalidContact)
	}
	return nil
}

// PlaceOrder validates the request and stores a new PENDING order. On failure
// nothing is stored.
func (m *Manager) PlaceOrder(req PlaceRequest) (*domain.PlacedOrder, error) {
	if err := Check(req); err != nil {
		return nil, err
	}
	payment := req.PaymentMethod
	if payment == "" {
		payment = domain.PaymentCash
	}
	if !payment.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidSelection, payment)
	}

	var subtotal int64
	for _, l := range req.Lines {
		subtotal += l.LineTotal()
	}

	res := req.Resolution
	fee := res.DeliveryFee
	if res.Mode == domain.ModePickup {
		fee = 0
	}

	var promo *domain.AppliedPromotion
	var discount int64
	if req.Promotion != nil {
		p := *req.Promotion
		promo = &p
		discount = p.Discount
	}
	totals := ComputeTotals(subtotal, fee, discount, m.vatPercent)
	if promo != nil {
		promo.Discount = totals.Discount
	}


	m.mu.Lock()
	now := m.clock.Now()
	m.seq++
	o := &domain.PlacedOrder{
		ID:         uuid.New().String(),
		Code:       fmt.Sprintf("%s-%s-%04d", codePrefix, now.Format("060102"), m.seq),
		BranchID:   res.BranchID,
		BranchName: res.BranchName,
		Mode:       res.Mode,
		Customer: domain.CustomerInfo{
			Name:  strings.TrimSpace(req.Customer.Name),
			Phone: NormalizePhone(req.Customer.Phone),
		},
		PaymentMethod:   payment,
		Promotion:       promo,
		Items:           domain.CloneLines(req.Lines),
		Subtotal:        totals.Subtotal,
		DeliveryFee:     totals.DeliveryFee,
		DiscountAmount:  totals.Discount,
		VATAmount:       totals.VAT,
		Total:           totals.Total,
		Note:            strings.TrimSpace(req.Note),
		PrepMinutes:     res.PrepMinutes,
		DeliveryMinutes: res.DeliveryMinutes,
		CreatedAt:       now,
		Status:          domain.OrderStatusPending,
		StatusUpdatedAt: now,
	}
	if res.Mode == domain.ModeDelivery {
		a := *res.Address
		if res.Address.Coordinate != nil {
			c := *res.Address.Coordinate
			a.Coordinate = &c
		}
		o.DeliveryAddress = &a
	}
	m.orders[o.ID] = o
	placed := o.Clone()
	notifiers := m.notifiers
	m.mu.Unlock()

	m.emit(notifiers, Event{Type: EventOrderPlaced, Order: *placed, OccurredAt: now})
	return placed, nil
}

// AdvanceStatus moves the order one step along its mode's sequence.
// Terminal orders fail with ErrIllegalTransition.
func (m *Manager) AdvanceStatus(id string) (*domain.PlacedOrder, error) {
	return m.transition(id, func(o *domain.PlacedOrder) (domain.OrderStatus, error) {
		next, ok := domain.NextStatus(o.Mode, o.Status)
		if !ok {
			return "", fmt.Errorf("%w: cannot advance %s order %s", domain.ErrIllegalTransition, o.Status, o.Code)
		}
		return next, nil
	})
}

// AdvanceStatusFrom advances the order only while it is still in expected.
// A caller acting on an older read fails with ErrIllegalTransition.
func (m *Manager) AdvanceStatusFrom(id string, expected domain.OrderStatus) (*domain.PlacedOrder, error) {
	return m.transition(id, func(o *domain.PlacedOrder) (domain.OrderStatus, error) {
		if o.Status != expected {
			return "", fmt.Errorf("%w: order %s is %s, not %s", domain.ErrIllegalTransition, o.Code, o.Status, expected)
		}
		next, ok := domain.NextStatus(o.Mode, o.Status)
		if !ok {
			return "", fmt.Errorf("%w: cannot advance %s order %s", domain.ErrIllegalTransition, o.Status, o.Code)
		}
		return next, nil
	})
}

// Cancel is allowed from any non-terminal status.
func (m *Manager) Cancel(id string) (*domain.PlacedOrder, error) {
	return m.transition(id, func(o *domain.PlacedOrder) (domain.OrderStatus, error) {
		if o.Status.IsTerminal() {
			return "", fmt.Errorf("%w: cannot cancel %s order %s", domain.ErrIllegalTransition, o.Status, o.Code)
		}
		return domain.OrderStatusCancelled, nil
	})
}

func (m *Manager) transition(id string, next func(*domain.PlacedOrder) (domain.OrderStatus, error)) (*domain.PlacedOrder, error) {
	m.mu.Lock()
	o, ok := m.orders[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	status, err := next(o)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	prev := o.Status
	now := m.clock.Now()
	o.Status = status
	o.StatusUpdatedAt = now
	updated := o.Clone()
	notifiers := m.notifiers
	m.mu.Unlock()

	m.emit(notifiers, Event{Type: EventStatusChanged, Order: *updated, PreviousStatus: prev, OccurredAt: now})
	return updated, nil
}

func (m *Manager) Get(id string) (*domain.PlacedOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return o.Clone(), nil
}

// List returns copies of all orders, newest first.
func (m *Manager) List() []*domain.PlacedOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.PlacedOrder, 0, len(m.orders))
	for _, o := range m.orders {
		result = append(result, o.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].Code > result[j].Code
	})
	return result
}

// Restore replaces the stored orders with persisted ones. The code sequence
// continues from the highest restored code.
func (m *Manager) Restore(orders []domain.PlacedOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders = make(map[string]*domain.PlacedOrder, len(orders))
	m.seq = 0
	for i := range orders {
		o := orders[i].Clone()
		if o.ID == "" {
			continue
		}
		m.orders[o.ID] = o
		m.seq = max(m.seq, codeSequence(o.Code))
	}
}

func (m *Manager) emit(notifiers []Notifier, e Event) {
	for _, n := range notifiers {
		n.Notify(e)
	}
}

func codeSequence(code string) int {
	i := strings.LastIndexByte(code, '-')
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(code[i+1:])
	if err != nil {
		return 0
	}
	return n
}

// Totals is the money breakdown of an order or a checkout preview.
type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	DeliveryFee int64 `json:"delivery_fee"`
	Discount    int64 `json:"discount"`
	VAT         int64 `json:"vat"`
	Total       int64 `json:"total"`
}

// ComputeTotals clamps the discount to what can be discounted and applies VAT
// to the discounted amount.
func ComputeTotals(subtotal, fee, discount, vatPercent int64) Totals {
	discount = min(max(discount, 0), subtotal+fee)
	taxable := subtotal + fee - discount
	vat := percentOf(taxable, vatPercent)
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Discount:    discount,
		VAT:         vat,
		Total:       taxable + vat,
	}
}

// percentOf rounds half up.
func percentOf(amount, percent int64) int64 {
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
