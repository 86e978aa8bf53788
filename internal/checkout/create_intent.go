package checkout

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/currency"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

// CreateIntent prices the user's cart server-side and opens a payment intent
// for exactly that amount. Client-supplied totals are never trusted.
//
// An empty currency defaults to the base currency; anything else is
// rejected, since every amount is persisted and charged in base currency and
// other currencies exist for display only.
func (s *Service) CreateIntent(ctx context.Context, userID int64, currencyCode string) (*Intent, error) {
	if currencyCode == "" {
		currencyCode = currency.BaseCurrency
	}
	if !strings.EqualFold(currencyCode, currency.BaseCurrency) {
		return nil, ErrUnsupportedCurrency
	}

	_, totals, err := s.snapshotAndPrice(ctx, userID)
	if err != nil {
		return nil, err
	}

	pending, clientSecret, err := s.payments.CreateIntent(ctx, userID, totals.Total, currency.BaseCurrency)
	if err != nil {
		return nil, err
	}

	s.log.Info("checkout intent created",
		zap.Int64("user_id", userID),
		zap.String("intent_id", pending.IntentID),
		zap.String("amount", pending.Amount.String()))

	return &Intent{
		IntentID:     pending.IntentID,
		ClientSecret: clientSecret,
		Amount:       pending.Amount,
		Currency:     pending.Currency,
	}, nil
}

// Confirm drives the payment intent; it never finalizes the order itself.
// A failed confirmation leaves the cart untouched so the user can retry with
// another payment method.
func (s *Service) Confirm(ctx context.Context, intentID string) (*domain.PendingPayment, error) {
	return s.payments.Confirm(ctx, intentID)
}
