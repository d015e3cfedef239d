package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/health"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	SecureCookies  bool
}

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Health   *health.Checker
}

// NewRouter mounts the storefront API under /api/v1 and wraps it in an
// otelhttp server handler.
func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if h.Health == nil {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		st := h.Health.Check(ctx)
		code := http.StatusOK
		if !st.Healthy() {
			code = http.StatusServiceUnavailable
		}
		respondJSON(w, code, st)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(cfg.SecureCookies))
		r.Use(BearerTokenMiddleware)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/price-filters", h.Products.PriceFilters)
			r.Get("/{slug}", h.Products.GetBySlug)
			r.Post("/{slug}/resolve", h.Products.Resolve)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Products.ListCategories)
			r.Get("/{slug}", h.Products.GetCategory)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.Clear)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{id}", h.Cart.RemoveItem)
			r.Put("/drawer", h.Cart.SetDrawer)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", h.Checkout.Submit)
			r.Get("/payment-methods", h.Checkout.PaymentMethods)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Orders.ListOrders)
			r.Get("/{id}", h.Orders.GetOrder)
		})
		r.Get("/receipts", h.Orders.ListReceipts)
	})

	return otelhttp.NewHandler(r, "storefront")
}
