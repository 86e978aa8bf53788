package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the currency every amount is persisted in. Conversion is
// display-only and never alters stored amounts.
const BaseCurrency = "USD"

var ErrUnknownCurrency = errors.New("no exchange rate for currency")

type Converter struct {
	rates map[string]decimal.Decimal // target currency -> units per base unit
}

func NewConverter(rates map[string]decimal.Decimal) *Converter {
	normalized := make(map[string]decimal.Decimal, len(rates)+1)
	for code, rate := range rates {
		normalized[strings.ToUpper(code)] = rate
	}
	normalized[BaseCurrency] = decimal.NewFromInt(1)
	return &Converter{rates: normalized}
}

// Convert maps a base-currency amount to the target currency for display,
// rounded half-up to 2 decimal places.
func (c *Converter) Convert(amount decimal.Decimal, target string) (decimal.Decimal, error) {
	rate, ok := c.rates[strings.ToUpper(target)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, target)
	}
	return amount.Mul(rate).Round(2), nil
}

// Supported reports whether a display currency is known to the converter.
func (c *Converter) Supported(code string) bool {
	_, ok := c.rates[strings.ToUpper(code)]
	return ok
}
