package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

// ReviewStore is the review surface the handler needs.
type ReviewStore interface {
	CreateReview(ctx context.Context, review *domain.Review) error
	ListReviewsByProduct(ctx context.Context, productID int64) ([]*domain.Review, error)
}

type ReviewsHandler struct {
	reviews ReviewStore
}

func NewReviewsHandler(reviews ReviewStore) *ReviewsHandler {
	return &ReviewsHandler{reviews: reviews}
}

type CreateReviewRequestDTO struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ReviewsHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := parsePathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", err.Error())
		return
	}

	reviews, err := h.reviews.ListReviewsByProduct(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, reviews)
}

func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID, err := parsePathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", err.Error())
		return
	}

	var req CreateReviewRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, "invalid_rating", "rating must be between 1 and 5")
		return
	}

	review := &domain.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.reviews.CreateReview(r.Context(), review); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, review)
}
