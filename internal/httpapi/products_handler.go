package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/currency"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

// ProductStore is the product surface the handler needs.
type ProductStore interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	RestockProduct(ctx context.Context, id int64, quantity int) (*domain.Product, error)
}

type ProductsHandler struct {
	products  ProductStore
	converter *currency.Converter
}

func NewProductsHandler(products ProductStore, converter *currency.Converter) *ProductsHandler {
	return &ProductsHandler{products: products, converter: converter}
}

type ProductDTO struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	Inventory   int              `json:"inventory"`
	CategoryID  int64            `json:"category_id"`
	ImageURL    string           `json:"image_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`

	DisplayPrice    *decimal.Decimal `json:"display_price,omitempty"`
	DisplayCurrency string           `json:"display_currency,omitempty"`
}

type RestockRequestDTO struct {
	Quantity int `json:"quantity"`
}

func productToDTO(p *domain.Product) *ProductDTO {
	return &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		SalePrice:   p.SalePrice,
		Inventory:   p.Inventory,
		CategoryID:  p.CategoryID,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
	}
}

func (h *ProductsHandler) withDisplayPrice(dto *ProductDTO, p *domain.Product, target string) error {
	if target == "" {
		return nil
	}
	converted, err := h.converter.Convert(p.EffectivePrice(), target)
	if err != nil {
		return err
	}
	dto.DisplayPrice = &converted
	dto.DisplayCurrency = target
	return nil
}

func (h *ProductsHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	target := r.URL.Query().Get("currency")
	dtos := make([]*ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = productToDTO(p)
		if err := h.withDisplayPrice(dtos[i], p, target); err != nil {
			handleServiceError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, dtos)
}

func (h *ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := parsePathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", err.Error())
		return
	}

	p, err := h.products.GetProduct(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dto := productToDTO(p)
	if err := h.withDisplayPrice(dto, p, r.URL.Query().Get("currency")); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

// Restock adds stock to a product. Only the product's seller may do it.
func (h *ProductsHandler) Restock(w http.ResponseWriter, r *http.Request) {
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

	var req RestockRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
		return
	}

	p, err := h.products.GetProduct(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if p.SellerID == nil || *p.SellerID != userID {
		respondError(w, http.StatusForbidden, "forbidden", "only the seller can restock this product")
		return
	}

	updated, err := h.products.RestockProduct(r.Context(), productID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, productToDTO(updated))
}
