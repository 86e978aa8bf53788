package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusCreated        PaymentStatus = "created"
	PaymentStatusRequiresAction PaymentStatus = "requires_action"
	PaymentStatusSucceeded      PaymentStatus = "succeeded"
	PaymentStatusFailed         PaymentStatus = "failed"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusFailed
}

// String representation (for logging)
func (s PaymentStatus) String() string {
	return string(s)
}

// PendingPayment tracks the lifecycle of a payment intent held by the
// external processor. Amount is in the base currency; the processor is
// charged in minor units of Currency.
type PendingPayment struct {
	IntentID      string
	UserID        int64
	Amount        decimal.Decimal
	Currency      string
	Status        PaymentStatus
	DeclineReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
