package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/cart"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/checkout"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/currency"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/inventory"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/payment"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/repository"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain errors onto HTTP statuses. Anything not
// recognized is a 500; the transaction behind it already rolled back, so the
// client can safely retry.
func handleServiceError(w http.ResponseWriter, err error) {
	var insufficient *inventory.InsufficientError
	var changed *repository.InventoryChangedError
	var mismatch *checkout.PriceMismatchError
	var processor *payment.ProcessorError

	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrUnsupportedCurrency):
		respondError(w, http.StatusBadRequest, "unsupported_currency", err.Error())
	case errors.Is(err, currency.ErrUnknownCurrency):
		respondError(w, http.StatusBadRequest, "unknown_currency", err.Error())
	case errors.As(err, &insufficient):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "not enough inventory",
			Code:    "insufficient_inventory",
			Details: insufficient.Error(),
		})
	case errors.As(err, &changed):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "inventory changed since payment, order not finalized",
			Code:    "inventory_changed",
			Details: changed.Error(),
		})
	case errors.As(err, &mismatch):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "price changed since payment, order not finalized",
			Code:    "price_mismatch",
			Details: mismatch.Error(),
		})
	case errors.Is(err, checkout.ErrPaymentNotConfirmed):
		respondError(w, http.StatusConflict, "payment_not_confirmed", err.Error())
	case errors.Is(err, payment.ErrPaymentSetupFailed):
		respondError(w, http.StatusBadGateway, "payment_setup_failed", err.Error())
	case errors.As(err, &processor):
		respondError(w, http.StatusBadGateway, "payment_processor_error", processor.Error())
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCartItemNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrIntentNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, repository.ErrDuplicateReview):
		respondError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		zap.L().Error("unhandled service error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func parsePathID(r *http.Request, param string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", param)
	}
	return id, nil
}
