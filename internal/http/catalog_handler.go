package http

import (
	"net/http"

	"github.com/fjod/coffee_cart/internal/catalog"
	"github.com/fjod/coffee_cart/internal/domain"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

type MenuResponse struct {
	Products   []domain.Product      `json:"products"`
	Toppings   []domain.Topping      `json:"toppings"`
	SizeDeltas map[domain.Size]int64 `json:"size_deltas"`
}

// GetMenu lists products, optionally filtered by ?category=.
func (h *CatalogHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, MenuResponse{
		Products:   h.catalog.ProductsByCategory(r.URL.Query().Get("category")),
		Toppings:   h.catalog.Toppings,
		SizeDeltas: h.catalog.SizeDeltas,
	})
}
