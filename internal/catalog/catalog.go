// Package catalog supplies the read-only product, topping and branch tables
// the engine consumes. Tables come from the built-in seed or a YAML file.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/fjod/coffee_cart/internal/geocode"
	"github.com/fjod/coffee_cart/internal/pricing"
	"github.com/fjod/coffee_cart/internal/promotion"
	"gopkg.in/yaml.v3"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

type Catalog struct {
	Products   []domain.Product      `yaml:"products"`
	Toppings   []domain.Topping      `yaml:"toppings"`
	SizeDeltas map[domain.Size]int64 `yaml:"size_deltas"`
	Branches   []domain.Branch       `yaml:"branches"`
	Promotions []promotion.Rule      `yaml:"promotions"`
	Addresses  []geocode.Entry       `yaml:"addresses"`

	products map[string]domain.Product
}

// LoadFile reads a YAML catalog. Sections left out of the file fall back to
// the built-in seed.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	seed := Default()
	if len(c.Products) == 0 {
		c.Products = seed.Products
	}
	if len(c.Toppings) == 0 {
		c.Toppings = seed.Toppings
	}
	if len(c.SizeDeltas) == 0 {
		c.SizeDeltas = seed.SizeDeltas
	}
	if len(c.Branches) == 0 {
		c.Branches = seed.Branches
	}
	if c.Promotions == nil {
		c.Promotions = seed.Promotions
	}
	if c.Addresses == nil {
		c.Addresses = seed.Addresses
	}

	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	c.products = make(map[string]domain.Product, len(c.Products))
	for _, p := range c.Products {
		if p.ID == "" {
			return fmt.Errorf("%w: product without id", ErrInvalidCatalog)
		}
		if p.BasePrice < 0 {
			return fmt.Errorf("%w: product %s has negative price", ErrInvalidCatalog, p.ID)
		}
		if _, dup := c.products[p.ID]; dup {
			return fmt.Errorf("%w: duplicate product %s", ErrInvalidCatalog, p.ID)
		}
		c.products[p.ID] = p
	}

	seen := make(map[string]bool, len(c.Branches))
	for _, b := range c.Branches {
		if b.ID == "" {
			return fmt.Errorf("%w: branch without id", ErrInvalidCatalog)
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate branch %s", ErrInvalidCatalog, b.ID)
		}
		if b.DeliveryRadiusKm < 0 || b.BaseDeliveryFee < 0 || b.PerKmRate < 0 || b.FreeShippingThreshold < 0 {
			return fmt.Errorf("%w: branch %s has negative fee settings", ErrInvalidCatalog, b.ID)
		}
		seen[b.ID] = true
	}

	for _, t := range c.Toppings {
		if t.ID == "" || t.Price < 0 {
			return fmt.Errorf("%w: bad topping %q", ErrInvalidCatalog, t.ID)
		}
	}

	// a negative delta would price a cup below its base price
	for size, delta := range c.SizeDeltas {
		if delta < 0 {
			return fmt.Errorf("%w: size %s has negative delta %d", ErrInvalidCatalog, size, delta)
		}
	}

	if _, err := promotion.NewEngine(c.Promotions); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return nil
}

// Product looks a product up by id.
func (c *Catalog) Product(id string) (domain.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return p, nil
}

// ProductsByCategory returns products sorted by id, optionally filtered.
func (c *Catalog) ProductsByCategory(categoryID string) []domain.Product {
	out := make([]domain.Product, 0, len(c.Products))
	for _, p := range c.Products {
		if categoryID == "" || p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) Menu() *pricing.Menu {
	return pricing.NewMenu(c.SizeDeltas, c.Toppings)
}
