package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/session"
)

type RouterConfig struct {
	JWTSecret      []byte
	Sessions       session.Repository
	RequestTimeout time.Duration
}

type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Products *ProductsHandler
	Wishlist *WishlistHandler
	Reviews  *ReviewsHandler
}

// NewRouter wires the storefront routes. Product listing and reviews are
// public; everything touching a user's cart, orders or wallet sits behind
// the bearer-token middleware.
func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	auth := AuthMiddleware(cfg.JWTSecret, cfg.Sessions)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.Products.ListProducts)
		r.Get("/products/{id}", h.Products.GetProduct)
		r.Get("/products/{id}/reviews", h.Reviews.ListByProduct)

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Put("/products/{id}/inventory", h.Products.Restock)
			r.Post("/products/{id}/reviews", h.Reviews.Create)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", h.Cart.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/create-intent", h.Checkout.CreateIntent)
				r.Post("/confirm", h.Checkout.Confirm)
				r.Post("/finalize", h.Checkout.Finalize)
			})

			r.Get("/orders", h.Orders.ListOrders)
			r.Get("/orders/{id}", h.Orders.GetOrder)

			r.Get("/wishlist", h.Wishlist.List)
			r.Post("/wishlist/{product_id}", h.Wishlist.Toggle)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
