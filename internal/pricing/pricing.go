package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fjod/coffee_cart/internal/domain"
)

// Menu holds the price deltas the pricing functions read. It is never mutated
// after construction and is safe to share between sessions.
type Menu struct {
	sizeDeltas map[domain.Size]int64
	toppings   map[string]domain.Topping
}

// DefaultSizeDeltas are the price deltas for S/M/L cups.
var DefaultSizeDeltas = map[domain.Size]int64{
	domain.SizeSmall:  0,
	domain.SizeMedium: 5000,
	domain.SizeLarge:  10000,
}

func NewMenu(sizeDeltas map[domain.Size]int64, toppings []domain.Topping) *Menu {
	m := &Menu{
		sizeDeltas: make(map[domain.Size]int64, len(sizeDeltas)),
		toppings:   make(map[string]domain.Topping, len(toppings)),
	}
	for size, delta := range sizeDeltas {
		m.sizeDeltas[size] = delta
	}
	for _, t := range toppings {
		m.toppings[t.ID] = t
	}
	return m
}

func (m *Menu) SizeDelta(size domain.Size) (int64, error) {
	delta, ok := m.sizeDeltas[size]
	if !ok {
		return 0, fmt.Errorf("%w: unknown size %q", domain.ErrInvalidSelection, size)
	}
	return delta, nil
}

func (m *Menu) Topping(id string) (domain.Topping, error) {
	t, ok := m.toppings[id]
	if !ok {
		return domain.Topping{}, fmt.Errorf("%w: unknown topping %q", domain.ErrInvalidSelection, id)
	}
	return t, nil
}

// ComputeUnitPrice returns basePrice + sizeDelta + Σ toppingPrice × quantity.
// Sugar and ice never change the price.
func (m *Menu) ComputeUnitPrice(basePrice int64, size domain.Size, toppings []domain.ToppingSelection) (int64, error) {
	if basePrice < 0 {
		return 0, fmt.Errorf("%w: negative base price %d", domain.ErrInvalidSelection, basePrice)
	}
	delta, err := m.SizeDelta(size)
	if err != nil {
		return 0, err
	}

	price := basePrice + delta
	for _, sel := range toppings {
		if sel.Quantity < 0 || sel.Quantity > domain.MaxToppingQuantity {
			return 0, fmt.Errorf("%w: topping %q quantity %d outside [0, %d]",
				domain.ErrInvalidSelection, sel.ToppingID, sel.Quantity, domain.MaxToppingQuantity)
		}
		t, err := m.Topping(sel.ToppingID)
		if err != nil {
			return 0, err
		}
		price += t.Price * int64(sel.Quantity)
	}
	return price, nil
}

// Normalize validates a selection and puts it in canonical form: note trimmed,
// zero-quantity toppings dropped, duplicate toppings merged, toppings sorted by id,
// empty sugar/ice defaulted to normal.
func (m *Menu) Normalize(sel domain.VariantSelection) (domain.VariantSelection, error) {
	out := domain.VariantSelection{
		Size:  sel.Size,
		Sugar: sel.Sugar,
		Ice:   sel.Ice,
		Note:  strings.TrimSpace(sel.Note),
	}
	if _, err := m.SizeDelta(out.Size); err != nil {
		return domain.VariantSelection{}, err
	}
	if out.Sugar == "" {
		out.Sugar = domain.SugarNormal
	}
	if !out.Sugar.Valid() {
		return domain.VariantSelection{}, fmt.Errorf("%w: unknown sugar level %q", domain.ErrInvalidSelection, out.Sugar)
	}
	if out.Ice == "" {
		out.Ice = domain.IceNormal
	}
	if !out.Ice.Valid() {
		return domain.VariantSelection{}, fmt.Errorf("%w: unknown ice level %q", domain.ErrInvalidSelection, out.Ice)
	}

	merged := make(map[string]int, len(sel.Toppings))
	for _, t := range sel.Toppings {
		if t.Quantity < 0 {
			return domain.VariantSelection{}, fmt.Errorf("%w: topping %q quantity %d is negative",
				domain.ErrInvalidSelection, t.ToppingID, t.Quantity)
		}
		if _, err := m.Topping(t.ToppingID); err != nil {
			return domain.VariantSelection{}, err
		}
		merged[t.ToppingID] += t.Quantity
	}
	for id, qty := range merged {
		if qty > domain.MaxToppingQuantity {
			return domain.VariantSelection{}, fmt.Errorf("%w: topping %q quantity %d exceeds %d",
				domain.ErrInvalidSelection, id, qty, domain.MaxToppingQuantity)
		}
		if qty == 0 {
			continue
		}
		out.Toppings = append(out.Toppings, domain.ToppingSelection{ToppingID: id, Quantity: qty})
	}
	sort.Slice(out.Toppings, func(i, j int) bool {
		return out.Toppings[i].ToppingID < out.Toppings[j].ToppingID
	})
	return out, nil
}

// Canonical renders a normalized selection as a stable string.
func Canonical(sel domain.VariantSelection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "size=%s;sugar=%s;ice=%s;toppings=", sel.Size, sel.Sugar, sel.Ice)
	for i, t := range sel.Toppings {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s:%d", t.ToppingID, t.Quantity)
	}
	b.WriteString(";note=")
	b.WriteString(sel.Note)
	return b.String()
}
