package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/orderflow/ordersvc/internal/command"
	"github.com/orderflow/ordersvc/internal/domain"
	"github.com/orderflow/ordersvc/internal/obs"
	"github.com/orderflow/ordersvc/internal/readmodel"
)

// App holds the dependencies of the HTTP handlers.
type App struct {
	Commands *command.Handlers
	Views    readmodel.Store
}

func NewApp(commands *command.Handlers, views readmodel.Store) *App {
	return &App{Commands: commands, Views: views}
}

type itemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createOrderRequest struct {
	UserID string        `json:"user_id"`
	Items  []itemRequest `json:"items"`
}

type createOrderResponse struct {
	OrderID string `json:"order_id"`
}

func (a *App) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.UserID == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "user_id is required")
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	orderID, err := a.Commands.HandleCreateOrder(r.Context(), command.CreateOrder{
		UserID: req.UserID,
		Items:  items,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createOrderResponse{OrderID: orderID})
}

type payOrderRequest struct {
	PaymentID string `json:"payment_id"`
}

func (a *App) payOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req payOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.PaymentID == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "payment_id is required")
		return
	}

	err := a.Commands.HandlePayOrder(r.Context(), command.PayOrder{
		OrderID:   chi.URLParam(r, "orderID"),
		PaymentID: req.PaymentID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (a *App) cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	err := a.Commands.HandleCancelOrder(r.Context(), command.CancelOrder{
		OrderID: chi.URLParam(r, "orderID"),
		Reason:  req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	view, ok, err := a.Views.Get(r.Context(), orderID)
	if err != nil {
		obs.Logger.Error("get_order_failed", "order_id", orderID, "error", err)
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

func (a *App) listUserOrdersHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	views, err := a.Views.ListByUser(r.Context(), userID)
	if err != nil {
		obs.Logger.Error("list_orders_failed", "user_id", userID, "error", err)
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
