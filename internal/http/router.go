// Package http exposes storefront sessions as a JSON API.
package http

import (
	"net/http"
	"time"

	"github.com/fjod/coffee_cart/internal/catalog"
	"github.com/fjod/coffee_cart/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Registry           *session.Registry
	Catalog            *catalog.Catalog
	Logger             zerolog.Logger
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	catalogHandler := NewCatalogHandler(cfg.Catalog)
	cartHandler := NewCartHandler(cfg.RequestTimeout)
	fulfillmentHandler := NewFulfillmentHandler(cfg.RequestTimeout)
	ordersHandler := NewOrdersHandler(cfg.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(AccessLogMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.MaxRequestBodySize > 0 {
		r.Use(MaxBodySizeMiddleware(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/menu", catalogHandler.GetMenu)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(cfg.Registry))

			r.Get("/session", cartHandler.GetSession)
			r.Get("/branches", fulfillmentHandler.Branches)

			r.Route("/cart", func(r chi.Router) {
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{line_key}", cartHandler.UpdateQuantity)
				r.Post("/items/{line_key}/increment", cartHandler.Increment)
				r.Post("/items/{line_key}/decrement", cartHandler.Decrement)
				r.Delete("/items/{line_key}", cartHandler.RemoveItem)
			})

			r.Route("/fulfillment", func(r chi.Router) {
				r.Put("/mode", fulfillmentHandler.SetMode)
				r.Put("/branch", fulfillmentHandler.SelectBranch)
				r.Put("/address", fulfillmentHandler.SetAddress)
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", fulfillmentHandler.ListAddresses)
				r.Post("/", fulfillmentHandler.SaveAddress)
				r.Delete("/{address_id}", fulfillmentHandler.RemoveAddress)
			})

			r.Route("/promo", func(r chi.Router) {
				r.Put("/", fulfillmentHandler.ApplyPromo)
				r.Delete("/", fulfillmentHandler.RemovePromo)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordersHandler.ListOrders)
				r.Post("/", ordersHandler.Checkout)
				r.Get("/{order_id}", ordersHandler.GetOrder)
				r.Post("/{order_id}/advance", ordersHandler.AdvanceOrder)
				r.Post("/{order_id}/cancel", ordersHandler.CancelOrder)
			})
		})
	})

	return r
}
