package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	p, err := c.Product("phin-sua-da")
	require.NoError(t, err)
	assert.Equal(t, int64(29000), p.BasePrice)

	_, err = c.Product("espresso-martini")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	coffee := c.ProductsByCategory(CategoryCoffee)
	require.NotEmpty(t, coffee)
	for i, p := range coffee {
		assert.Equal(t, CategoryCoffee, p.CategoryID)
		if i > 0 {
			assert.Less(t, coffee[i-1].ID, p.ID)
		}
	}
	assert.Len(t, c.ProductsByCategory(""), len(c.Products))
}

func TestDefault_MenuPricesScenario(t *testing.T) {
	c := Default()
	p, err := c.Product("phin-sua-da")
	require.NoError(t, err)

	unit, err := c.Menu().ComputeUnitPrice(p.BasePrice, domain.SizeMedium, []domain.ToppingSelection{{ToppingID: "pearl", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(42000), unit)
}

const catalogYAML = `
products:
  - id: latte
    name: Latte
    base_price: 45000
    category_id: coffee
    is_available: true
branches:
  - id: hn-hoan-kiem
    name: Hoan Kiem
    location: {lat: 21.0285, lng: 105.8542}
    delivery_radius_km: 3
    base_delivery_fee: 12000
    per_km_rate: 4000
    free_shipping_threshold: 120000
    prep_minutes: 8
    delivery_minutes: 15
    hours:
      open: "22:00"
      close: "02:00"
      days: [5, 6]
      timezone: Asia/Bangkok
    is_active: true
promotions:
  - code: night15
    label: Night owl
    type: percent
    value: 15
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)

	require.Len(t, c.Products, 1)
	p, err := c.Product("latte")
	require.NoError(t, err)
	assert.Equal(t, int64(45000), p.BasePrice)

	require.Len(t, c.Branches, 1)
	b := c.Branches[0]
	assert.Equal(t, domain.NewTimeOfDay(22, 0), b.Hours.Open)
	assert.Equal(t, domain.NewTimeOfDay(2, 0), b.Hours.Close)
	assert.Equal(t, []time.Weekday{time.Friday, time.Saturday}, b.Hours.Days)
	assert.Equal(t, "Asia/Bangkok", b.Hours.Timezone)
	assert.Equal(t, 21.0285, b.Location.Lat)

	require.Len(t, c.Promotions, 1)
	assert.Equal(t, "night15", c.Promotions[0].Code)

	// sections missing from the file come from the seed
	assert.Equal(t, Default().Toppings, c.Toppings)
	assert.Equal(t, Default().Addresses, c.Addresses)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"syntax":            "products: [",
		"duplicate product": "products:\n  - {id: a, base_price: 1}\n  - {id: a, base_price: 2}\n",
		"negative price":    "products:\n  - {id: a, base_price: -1}\n",
		"bad hours":         "branches:\n  - {id: b, hours: {open: \"25:00\"}}\n",
		"duplicate branch":  "branches:\n  - {id: b}\n  - {id: b}\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestParse_RejectsBadPricingAndPromotions(t *testing.T) {
	tests := map[string]string{
		"negative size delta":    "size_deltas: {S: -5000, M: 0, L: 5000}\n",
		"percent above 100":      "promotions:\n  - {code: HALFPLUS, type: percent, value: 150}\n",
		"zero fixed amount":      "promotions:\n  - {code: NOTHING, type: fixed, value: 0}\n",
		"unknown promo type":     "promotions:\n  - {code: BOGO, type: bogo, value: 1}\n",
		"promotion without code": "promotions:\n  - {type: freeship}\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, c.Branches, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
