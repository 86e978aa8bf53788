package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/currency"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

// OrderReader is the order surface the handler needs.
type OrderReader interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders    OrderReader
	converter *currency.Converter
}

func NewOrdersHandler(orders OrderReader, converter *currency.Converter) *OrdersHandler {
	return &OrdersHandler{orders: orders, converter: converter}
}

type OrderDTO struct {
	ID              string             `json:"id"`
	Status          string             `json:"status"`
	TotalPrice      decimal.Decimal    `json:"total_price"`
	Currency        string             `json:"currency"`
	PaymentMethod   string             `json:"payment_method,omitempty"`
	ShippingAddress string             `json:"shipping_address,omitempty"`
	Items           []domain.OrderItem `json:"items"`
	CreatedAt       time.Time          `json:"created_at"`

	// Display conversion, present only when ?currency= was given.
	DisplayTotal    *decimal.Decimal `json:"display_total,omitempty"`
	DisplayCurrency string           `json:"display_currency,omitempty"`
}

func orderToDTO(order *domain.Order) *OrderDTO {
	return &OrderDTO{
		ID:              order.ID.String(),
		Status:          string(order.Status),
		TotalPrice:      order.TotalPrice,
		Currency:        order.Currency,
		PaymentMethod:   order.PaymentMethod,
		ShippingAddress: order.ShippingAddress,
		Items:           order.Items,
		CreatedAt:       order.CreatedAt,
	}
}

// withDisplayTotal converts the persisted total for display. Stored amounts
// are never touched.
func (h *OrdersHandler) withDisplayTotal(dto *OrderDTO, target string) error {
	if target == "" {
		return nil
	}
	converted, err := h.converter.Convert(dto.TotalPrice, target)
	if err != nil {
		return err
	}
	dto.DisplayTotal = &converted
	dto.DisplayCurrency = target
	return nil
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrdersByUserID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	target := r.URL.Query().Get("currency")
	dtos := make([]*OrderDTO, len(orders))
	for i, order := range orders {
		dtos[i] = orderToDTO(order)
		if err := h.withDisplayTotal(dtos[i], target); err != nil {
			handleServiceError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, dtos)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	order, err := h.orders.GetOrderByID(r.Context(), orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	// Orders are visible to their owner only.
	if order.UserID != userID {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}

	dto := orderToDTO(order)
	if err := h.withDisplayTotal(dto, r.URL.Query().Get("currency")); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto)
}
