package router

import (
	"net/http"

	"marketplace-api/internal/handler"
	"marketplace-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates the HTTP router with all routes and middleware configured.
// The webhook route is deliberately outside the authenticated group: the
// provider authenticates with its signature header, not a bearer token.
func New(
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	adminHandler *handler.AdminHandler,
	jwtSecret string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Public catalogue
		r.Get("/products", productHandler.GetAll)
		r.Get("/products/{id}", productHandler.GetByID)

		// Provider callback, authenticated by signature
		r.Post("/payment/webhook", paymentHandler.Webhook)

		// Authenticated customer surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret, logger))

			r.Post("/orders", orderHandler.Create)
			r.Get("/orders", orderHandler.List)
			r.Get("/orders/{id}", orderHandler.GetByID)
			r.Post("/orders/{id}/pay", orderHandler.Pay)

			r.Post("/payment/create-checkout-session", paymentHandler.CreateCheckoutSession)

			// Admin surface
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logger))

				r.Get("/orders", adminHandler.ListOrders)
				r.Put("/orders/{id}/status", adminHandler.UpdateStatus)
				r.Get("/dashboard", adminHandler.Dashboard)
			})
		})
	})

	return r
}
