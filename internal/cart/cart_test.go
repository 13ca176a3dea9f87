package cart

import (
	"testing"
	"time"

	"github.com/fjod/coffee_cart/internal/clock"
	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/fjod/coffee_cart/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	latte   = domain.Product{ID: "latte", Name: "Latte", BasePrice: 29000, CategoryID: "coffee", IsAvailable: true}
	mocha   = domain.Product{ID: "mocha", Name: "Mocha", BasePrice: 35000, CategoryID: "coffee", IsAvailable: true}
	soldOut = domain.Product{ID: "cold-brew", Name: "Cold brew", BasePrice: 39000, CategoryID: "coffee", IsAvailable: false}
)

func newTestCart() *Cart {
	menu := pricing.NewMenu(pricing.DefaultSizeDeltas, []domain.Topping{
		{ID: "pearl", Name: "Tapioca pearl", Price: 8000},
		{ID: "jelly", Name: "Coffee jelly", Price: 6000},
	})
	return New(menu, clock.NewManual(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
}

func mediumWithPearl() domain.VariantSelection {
	return domain.VariantSelection{
		Size:     domain.SizeMedium,
		Toppings: []domain.ToppingSelection{{ToppingID: "pearl", Quantity: 1}},
	}
}

func TestAddItem_ScenarioLineTotal(t *testing.T) {
	c := newTestCart()

	line, err := c.AddItem(latte, mediumWithPearl(), 2)
	require.NoError(t, err)

	assert.Equal(t, int64(42000), line.UnitPrice)
	assert.Equal(t, int64(84000), line.LineTotal())
	assert.Equal(t, 2, c.ItemCount())
	assert.Equal(t, int64(84000), c.Subtotal())
}

func TestAddItem_IdenticalSelectionMerges(t *testing.T) {
	c := newTestCart()

	first, err := c.AddItem(latte, mediumWithPearl(), 1)
	require.NoError(t, err)
	second, err := c.AddItem(latte, mediumWithPearl(), 2)
	require.NoError(t, err)

	assert.Equal(t, first.Key, second.Key)
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, 3, c.Lines()[0].Quantity)
}

func TestAddItem_AnyDifferentFieldMakesNewLine(t *testing.T) {
	variants := map[string]func(*domain.VariantSelection){
		"size":    func(s *domain.VariantSelection) { s.Size = domain.SizeLarge },
		"sugar":   func(s *domain.VariantSelection) { s.Sugar = domain.SugarHalf },
		"ice":     func(s *domain.VariantSelection) { s.Ice = domain.IceLess },
		"topping": func(s *domain.VariantSelection) { s.Toppings[0].Quantity = 2 },
		"note":    func(s *domain.VariantSelection) { s.Note = "extra hot" },
	}

	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			c := newTestCart()
			_, err := c.AddItem(latte, mediumWithPearl(), 1)
			require.NoError(t, err)

			changed := mediumWithPearl()
			mutate(&changed)
			_, err = c.AddItem(latte, changed, 1)
			require.NoError(t, err)

			assert.Len(t, c.Lines(), 2)
		})
	}
}

func TestAddItem_SameSelectionDifferentProduct(t *testing.T) {
	c := newTestCart()

	_, err := c.AddItem(latte, mediumWithPearl(), 1)
	require.NoError(t, err)
	_, err = c.AddItem(mocha, mediumWithPearl(), 1)
	require.NoError(t, err)

	assert.Len(t, c.Lines(), 2)
}

func TestAddItem_Unavailable(t *testing.T) {
	c := newTestCart()

	_, err := c.AddItem(soldOut, mediumWithPearl(), 1)
	assert.ErrorIs(t, err, domain.ErrProductUnavailable)
	assert.True(t, c.IsEmpty())
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	c := newTestCart()

	for _, qty := range []int{0, -1, MaxLineQuantity + 1} {
		_, err := c.AddItem(latte, mediumWithPearl(), qty)
		assert.ErrorIs(t, err, domain.ErrInvalidSelection)
	}
	assert.True(t, c.IsEmpty())
}

func TestAddItem_MergeRespectsLineCap(t *testing.T) {
	c := newTestCart()
	line, err := c.AddItem(latte, mediumWithPearl(), MaxLineQuantity)
	require.NoError(t, err)

	_, err = c.AddItem(latte, mediumWithPearl(), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
	assert.Equal(t, MaxLineQuantity, c.ItemCount())
	assert.Equal(t, int64(MaxLineQuantity)*42000, c.Subtotal())

	// the line stays editable at the cap
	require.NoError(t, c.UpdateQuantity(line.Key, MaxLineQuantity))
	assert.ErrorIs(t, c.Increment(line.Key), domain.ErrInvalidSelection)
	require.NoError(t, c.Decrement(line.Key))
	assert.Equal(t, MaxLineQuantity-1, c.ItemCount())

	_, err = c.AddItem(latte, mediumWithPearl(), 1)
	require.NoError(t, err)
	assert.Equal(t, MaxLineQuantity, c.ItemCount())
}

func TestAddItem_InvalidSelectionLeavesCartUnchanged(t *testing.T) {
	c := newTestCart()
	_, err := c.AddItem(latte, mediumWithPearl(), 1)
	require.NoError(t, err)

	_, err = c.AddItem(latte, domain.VariantSelection{
		Size:     domain.SizeMedium,
		Toppings: []domain.ToppingSelection{{ToppingID: "unknown", Quantity: 1}},
	}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
	assert.Len(t, c.Lines(), 1)
	assert.Equal(t, int64(42000), c.Subtotal())
}

func TestUpdateQuantity(t *testing.T) {
	c := newTestCart()
	line, err := c.AddItem(latte, mediumWithPearl(), 1)
	require.NoError(t, err)

	require.NoError(t, c.UpdateQuantity(line.Key, 5))
	assert.Equal(t, 5, c.ItemCount())
	assert.Equal(t, int64(5*42000), c.Subtotal())

	require.NoError(t, c.UpdateQuantity(line.Key, 0))
	assert.True(t, c.IsEmpty())
}

func TestUpdateQuantity_UnknownKey(t *testing.T) {
	c := newTestCart()

	assert.ErrorIs(t, c.UpdateQuantity("missing", 2), domain.ErrLineNotFound)
	assert.NoError(t, c.UpdateQuantity("missing", 0))
}

func TestDecrement_RemovesLastUnit(t *testing.T) {
	c := newTestCart()
	line, err := c.AddItem(latte, mediumWithPearl(), 1)
	require.NoError(t, err)

	require.NoError(t, c.Increment(line.Key))
	assert.Equal(t, 2, c.ItemCount())

	require.NoError(t, c.Decrement(line.Key))
	require.NoError(t, c.Decrement(line.Key))
	assert.True(t, c.IsEmpty())
	assert.Equal(t, int64(0), c.Subtotal())
}

func TestRemoveItem_Idempotent(t *testing.T) {
	c := newTestCart()
	line, err := c.AddItem(latte, mediumWithPearl(), 1)
	require.NoError(t, err)

	c.RemoveItem("does-not-exist")
	assert.Len(t, c.Lines(), 1)

	c.RemoveItem(line.Key)
	c.RemoveItem(line.Key)
	assert.True(t, c.IsEmpty())
}

func TestClear_ZeroesTotals(t *testing.T) {
	c := newTestCart()
	_, err := c.AddItem(latte, mediumWithPearl(), 2)
	require.NoError(t, err)
	_, err = c.AddItem(mocha, domain.VariantSelection{Size: domain.SizeSmall}, 1)
	require.NoError(t, err)

	c.Clear()
	c.Clear()

	assert.Equal(t, 0, c.ItemCount())
	assert.Equal(t, int64(0), c.Subtotal())
}

func TestSubtotal_MatchesLines(t *testing.T) {
	c := newTestCart()
	_, err := c.AddItem(latte, mediumWithPearl(), 2)
	require.NoError(t, err)
	_, err = c.AddItem(mocha, domain.VariantSelection{Size: domain.SizeLarge}, 3)
	require.NoError(t, err)

	var expected int64
	for _, l := range c.Lines() {
		expected += l.UnitPrice * int64(l.Quantity)
	}
	assert.Equal(t, expected, c.Subtotal())
	assert.Equal(t, expected, c.Snapshot().Subtotal)
}

func TestLines_AreDetachedCopies(t *testing.T) {
	c := newTestCart()
	_, err := c.AddItem(latte, mediumWithPearl(), 1)
	require.NoError(t, err)

	lines := c.Lines()
	lines[0].Quantity = 50
	lines[0].Selection.Toppings[0].Quantity = 3

	fresh := c.Lines()
	assert.Equal(t, 1, fresh[0].Quantity)
	assert.Equal(t, 1, fresh[0].Selection.Toppings[0].Quantity)
}

func TestRestore_KeepsStoredPrices(t *testing.T) {
	c := newTestCart()
	c.Restore([]domain.CartLine{
		{Key: "latte-1", ProductID: "latte", Quantity: 2, UnitPrice: 31000},
		{Key: "broken", ProductID: "latte", Quantity: 0, UnitPrice: 31000},
	})

	require.Len(t, c.Lines(), 1)
	assert.Equal(t, int64(62000), c.Subtotal())
}
