package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dukahq/storefront/internal/auth"
)

// NewRouter wires all routes. Public routes need no token; customer routes
// need a session; admin routes additionally need the admin role.
func NewRouter(handler *Handler, authSvc *auth.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Public.
	r.Post("/auth/login", handler.Login)
	r.Get("/branches", handler.ListBranches)
	r.Get("/products", handler.ListProducts)
	r.Get("/branches/{id}/stock", handler.BranchStock)
	r.Get("/realtime/stock", handler.StreamStock)

	// Signed-in customers.
	r.Group(func(r chi.Router) {
		r.Use(RequireSession(authSvc))

		r.Post("/auth/logout", handler.Logout)
		r.Get("/auth/me", handler.Me)

		r.Get("/cart", handler.GetCart)
		r.Put("/cart/branch", handler.SetCartBranch)
		r.Post("/cart/items", handler.AddCartItem)
		r.Put("/cart/items/{productID}", handler.UpdateCartItem)
		r.Delete("/cart/items/{productID}", handler.RemoveCartItem)
		r.Delete("/cart", handler.ClearCart)

		r.Get("/checkout", handler.GetCheckout)
		r.Post("/checkout", handler.SubmitPayment)
		r.Post("/checkout/retry", handler.RetryCheckout)
	})

	// Admins.
	r.Group(func(r chi.Router) {
		r.Use(RequireSession(authSvc))
		r.Use(RequireAdmin)

		r.Get("/admin/stock", handler.StockOverview)
		r.Post("/admin/restock", handler.Restock)
		r.Get("/admin/reports/sales", handler.SalesReport)
	})

	return r
}
