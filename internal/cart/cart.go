package cart

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/fjod/coffee_cart/internal/clock"
	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/fjod/coffee_cart/internal/pricing"
)

// MaxLineQuantity bounds a single add or update call.
const MaxLineQuantity = 99

// Cart owns the configured lines of one session. It is not safe for concurrent
// use; the owning session serializes access.
type Cart struct {
	menu  *pricing.Menu
	clock clock.Clock
	lines []domain.CartLine
}

func New(menu *pricing.Menu, clk clock.Clock) *Cart {
	return &Cart{
		menu:  menu,
		clock: clk,
	}
}

// LineKey derives the merge key of a line from the product id and its
// normalized selection.
func LineKey(productID string, normalized domain.VariantSelection) string {
	sum := xxhash.Sum64String(productID + "|" + pricing.Canonical(normalized))
	return productID + "-" + strconv.FormatUint(sum, 16)
}

// AddItem prices the configuration and merges it into an identical line or
// appends a new one. The cart is unchanged on error.
func (c *Cart) AddItem(product domain.Product, selection domain.VariantSelection, quantity int) (domain.CartLine, error) {
	if !product.IsAvailable {
		return domain.CartLine{}, fmt.Errorf("%w: %s", domain.ErrProductUnavailable, product.ID)
	}
	if err := validateQuantity(quantity); err != nil {
		return domain.CartLine{}, err
	}

	normalized, err := c.menu.Normalize(selection)
	if err != nil {
		return domain.CartLine{}, err
	}
	unitPrice, err := c.menu.ComputeUnitPrice(product.BasePrice, normalized.Size, normalized.Toppings)
	if err != nil {
		return domain.CartLine{}, err
	}

	key := LineKey(product.ID, normalized)
	if i := c.find(key); i >= 0 {
		merged := c.lines[i].Quantity + quantity
		if err := validateQuantity(merged); err != nil {
			return domain.CartLine{}, err
		}
		c.lines[i].Quantity = merged
		return c.lines[i].Clone(), nil
	}

	line := domain.CartLine{
		Key:         key,
		ProductID:   product.ID,
		ProductName: product.Name,
		Selection:   normalized,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		AddedAt:     c.clock.Now(),
	}
	c.lines = append(c.lines, line)
	return line.Clone(), nil
}

// UpdateQuantity sets the quantity of a line. A quantity below 1 removes it.
func (c *Cart) UpdateQuantity(key string, quantity int) error {
	if quantity < 1 {
		c.RemoveItem(key)
		return nil
	}
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	i := c.find(key)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrLineNotFound, key)
	}
	c.lines[i].Quantity = quantity
	return nil
}

func (c *Cart) Increment(key string) error {
	i := c.find(key)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrLineNotFound, key)
	}
	return c.UpdateQuantity(key, c.lines[i].Quantity+1)
}

// Decrement lowers a line by one; a quantity-1 line is removed.
func (c *Cart) Decrement(key string) error {
	i := c.find(key)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrLineNotFound, key)
	}
	return c.UpdateQuantity(key, c.lines[i].Quantity-1)
}

// RemoveItem is a no-op for unknown keys.
func (c *Cart) RemoveItem(key string) {
	i := c.find(key)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Restore replaces the cart content with previously persisted lines. Unit
// prices are kept as stored.
func (c *Cart) Restore(lines []domain.CartLine) {
	c.lines = nil
	for _, l := range lines {
		if l.Quantity < 1 || l.Key == "" {
			continue
		}
		c.lines = append(c.lines, l.Clone())
	}
}

func (c *Cart) Lines() []domain.CartLine {
	return domain.CloneLines(c.lines)
}

func (c *Cart) Line(key string) (domain.CartLine, bool) {
	i := c.find(key)
	if i < 0 {
		return domain.CartLine{}, false
	}
	return c.lines[i].Clone(), true
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// ItemCount is the sum of quantities across lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

// Subtotal is the sum of unit price × quantity across lines.
func (c *Cart) Subtotal() int64 {
	var subtotal int64
	for _, l := range c.lines {
		subtotal += l.LineTotal()
	}
	return subtotal
}

func (c *Cart) Snapshot() Snapshot {
	return Snapshot{
		Lines:     c.Lines(),
		ItemCount: c.ItemCount(),
		Subtotal:  c.Subtotal(),
	}
}

// Snapshot is a detached copy of the cart used for placement and display.
type Snapshot struct {
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
	Subtotal  int64             `json:"subtotal"`
}

func (c *Cart) find(key string) int {
	for i := range c.lines {
		if c.lines[i].Key == key {
			return i
		}
	}
	return -1
}

func validateQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxLineQuantity {
		return fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrInvalidSelection, MaxLineQuantity)
	}
	return nil
}
