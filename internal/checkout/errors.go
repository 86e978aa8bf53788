package checkout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrPaymentNotConfirmed = errors.New("payment has not succeeded for this intent")
	ErrUnsupportedCurrency = errors.New("orders are charged in the base currency only")
)

// PriceMismatchError means the authoritative total at finalization time no
// longer matches what the payment intent was charged for. The order is never
// silently finalized at a different amount.
type PriceMismatchError struct {
	IntentAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price mismatch: intent charged %s but current total is %s",
		e.IntentAmount, e.CurrentAmount)
}
