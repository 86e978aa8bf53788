package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

var (
	ErrInvalidQuantity = errors.New("cart item quantity must be at least 1")
	ErrUnknownProduct  = errors.New("cart references a product that does not exist")
)

type LineItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	ImageURL    string          `json:"image_url"`
}

type Totals struct {
	Lines    []LineItem      `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals prices a cart against the product state passed in. It has no
// side effects; callers re-fetch current products at checkout time instead of
// trusting prices the cart was displayed with.
//
// Each line total is rounded half-up to 2 decimal places before summation, so
// the grand total is always the exact sum of the per-line amounts shown on a
// receipt.
func ComputeTotals(items []domain.CartItem, products map[int64]domain.Product) (*Totals, error) {
	totals := &Totals{
		Lines:    make([]LineItem, 0, len(items)),
		Subtotal: decimal.Zero,
	}

	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %d has quantity %d", ErrInvalidQuantity, item.ProductID, item.Quantity)
		}

		product, ok := products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", ErrUnknownProduct, item.ProductID)
		}

		unit := product.EffectivePrice()
		lineTotal := unit.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)

		totals.Lines = append(totals.Lines, LineItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   unit,
			LineTotal:   lineTotal,
			ImageURL:    product.ImageURL,
		})
		totals.Subtotal = totals.Subtotal.Add(lineTotal)
	}

	// No tax or shipping computed here; the storefront flags those as
	// "Included"/"Free" at display time.
	totals.Total = totals.Subtotal
	return totals, nil
}

// OrderItems converts priced lines into the immutable snapshot shape stored
// on a finalized order.
func (t *Totals) OrderItems() []domain.OrderItem {
	items := make([]domain.OrderItem, len(t.Lines))
	for i, line := range t.Lines {
		items[i] = domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Price:       line.UnitPrice,
			ImageURL:    line.ImageURL,
		}
	}
	return items
}
