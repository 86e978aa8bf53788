package httpapi

import (
	"context"
	"net/http"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

// WishlistStore is the wishlist surface the handler needs.
type WishlistStore interface {
	ToggleWishlistItem(ctx context.Context, userID, productID int64) (bool, error)
	ListWishlist(ctx context.Context, userID int64) ([]*domain.WishlistItem, error)
}

type WishlistHandler struct {
	wishlist WishlistStore
}

func NewWishlistHandler(wishlist WishlistStore) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist}
}

type ToggleResponseDTO struct {
	ProductID int64 `json:"product_id"`
	Added     bool  `json:"added"`
}

func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	items, err := h.wishlist.ListWishlist(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// Toggle adds the product when absent and removes it when present.
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID, err := parsePathID(r, "product_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", err.Error())
		return
	}

	added, err := h.wishlist.ToggleWishlistItem(r.Context(), userID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ToggleResponseDTO{ProductID: productID, Added: added})
}
