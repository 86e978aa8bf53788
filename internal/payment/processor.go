package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

// Intent is the processor's view of a charge attempt. Amounts cross the wire
// in minor units; DeclineReason is only set on failed intents.
type Intent struct {
	ID            string
	ClientSecret  string
	Status        domain.PaymentStatus
	DeclineReason string
}

// Processor is the external payment processor's API surface.
// Consumers define this interface, not the HTTP implementation.
type Processor interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (*Intent, error)
	ConfirmIntent(ctx context.Context, intentID string) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
}

// ProcessorError is a non-2xx response from the processor API.
type ProcessorError struct {
	StatusCode int
	Message    string
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor returned %d: %s", e.StatusCode, e.Message)
}

// MinorUnits converts a base-currency amount to the integer minor units the
// processor charges in (20.00 -> 2000).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}
