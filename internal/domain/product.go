package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	SalePrice   *decimal.Decimal
	Inventory   int
	CategoryID  int64
	SellerID    *int64
	ImageURL    string
	CreatedAt   time.Time
}

// EffectivePrice returns the sale price when one is set and positive,
// otherwise the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil && p.SalePrice.IsPositive() {
		return *p.SalePrice
	}
	return p.Price
}
