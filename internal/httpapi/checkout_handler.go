package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/checkout"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

// CheckoutService is the checkout surface the handler needs.
type CheckoutService interface {
	CreateIntent(ctx context.Context, userID int64, currencyCode string) (*checkout.Intent, error)
	Confirm(ctx context.Context, intentID string) (*domain.PendingPayment, error)
	Finalize(ctx context.Context, userID int64, intentID, paymentMethod, shippingAddress string) (*domain.Order, error)
}

type CheckoutHandler struct {
	service CheckoutService
}

func NewCheckoutHandler(service CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

type CreateIntentRequestDTO struct {
	Currency string `json:"currency"`
}

type ConfirmRequestDTO struct {
	IntentID string `json:"intent_id"`
}

type ConfirmResponseDTO struct {
	IntentID      string `json:"intent_id"`
	Status        string `json:"status"`
	DeclineReason string `json:"decline_reason,omitempty"`
}

type FinalizeRequestDTO struct {
	IntentID        string `json:"intent_id"`
	PaymentMethod   string `json:"payment_method"`
	ShippingAddress string `json:"shipping_address"`
}

func (h *CheckoutHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CreateIntentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	intent, err := h.service.CreateIntent(r.Context(), userID, req.Currency)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, intent)
}

func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req ConfirmRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.IntentID == "" {
		respondError(w, http.StatusBadRequest, "invalid_intent_id", "intent_id is required")
		return
	}

	pending, err := h.service.Confirm(r.Context(), req.IntentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ConfirmResponseDTO{
		IntentID:      pending.IntentID,
		Status:        pending.Status.String(),
		DeclineReason: pending.DeclineReason,
	})
}

func (h *CheckoutHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req FinalizeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.IntentID == "" {
		respondError(w, http.StatusBadRequest, "invalid_intent_id", "intent_id is required")
		return
	}
	if req.ShippingAddress == "" {
		respondError(w, http.StatusBadRequest, "invalid_shipping_address", "shipping_address is required")
		return
	}

	order, err := h.service.Finalize(r.Context(), userID, req.IntentID, req.PaymentMethod, req.ShippingAddress)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, orderToDTO(order))
}
