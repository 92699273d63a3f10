package router

import (
	"net/http"

	"hexashop/internal/config"
	"hexashop/internal/handler"
	"hexashop/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handlers bundles the HTTP handlers the router mounts.
type Handlers struct {
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	Cart    *handler.CartHandler
}

// New builds the API router: public storefront routes, the order pipeline,
// and an API-key protected admin group.
func New(cfg *config.Config, h Handlers, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Product.GetAll)
			r.Get("/featured", h.Product.GetFeatured)
			r.Get("/search", h.Product.Search)
			r.Get("/category/{category}", h.Product.GetByCategory)
			r.Get("/brand/{brand}", h.Product.GetByBrand)
			r.Get("/{id}", h.Product.GetByID)
		})

		r.Post("/cart/validate-promo", h.Cart.ValidatePromo)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Order.Create)
			r.Get("/phone/{phone}", h.Order.GetByPhone)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.Auth.APIKey, logger))

			r.Post("/products", h.Product.Create)
			r.Put("/products/{id}", h.Product.Update)
			r.Delete("/products/{id}", h.Product.Delete)

			r.Get("/cache/stats", h.Product.CacheStats)
			r.Post("/cache/clear", h.Product.ClearCache)
		})
	})

	return r
}
