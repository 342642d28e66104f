package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter registers the HTTP routes and returns the handler.
func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/orders", app.createOrderHandler)
	r.Post("/orders/{orderID}/pay", app.payOrderHandler)
	r.Post("/orders/{orderID}/cancel", app.cancelOrderHandler)
	r.Get("/orders/{orderID}", app.getOrderHandler)
	r.Get("/users/{userID}/orders", app.listUserOrdersHandler)
	r.Get("/healthz", app.healthHandler)

	return r
}
