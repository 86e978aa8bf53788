package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/repository"
)

// Finalize converts a succeeded payment intent plus the user's cart into a
// persisted order. Calling it again for the same intent returns the same
// order; inventory is decremented exactly once.
func (s *Service) Finalize(ctx context.Context, userID int64, intentID, paymentMethod, shippingAddress string) (*domain.Order, error) {
	pending, err := s.payments.Status(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if pending.UserID != userID {
		return nil, repository.ErrIntentNotFound
	}
	if pending.Status != domain.PaymentStatusSucceeded {
		return nil, fmt.Errorf("%w: intent %s is %s", ErrPaymentNotConfirmed, intentID, pending.Status)
	}

	// A duplicate confirmation arrives after the first finalize already
	// emptied the cart, so the idempotency check has to come before the
	// cart snapshot.
	existing, err := s.store.GetOrderByIntentID(ctx, intentID)
	if err != nil && !errors.Is(err, repository.ErrOrderNotFound) {
		return nil, err
	}
	if existing != nil {
		s.log.Info("duplicate finalize resolved idempotently",
			zap.String("intent_id", intentID),
			zap.String("order_id", existing.ID.String()))
		return existing, nil
	}

	_, totals, err := s.snapshotAndPrice(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The authoritative total must match what the processor charged, give
	// or take rounding noise.
	if totals.Total.Sub(pending.Amount).Abs().GreaterThan(priceTolerance) {
		return nil, &PriceMismatchError{
			IntentAmount:  pending.Amount,
			CurrentAmount: totals.Total,
		}
	}

	order := &domain.Order{
		ID:              uuid.New(),
		IntentID:        intentID,
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		TotalPrice:      totals.Total,
		Currency:        pending.Currency,
		PaymentMethod:   paymentMethod,
		ShippingAddress: shippingAddress,
		Items:           totals.OrderItems(),
	}

	finalized, err := s.store.FinalizeOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	s.carts.InvalidateCache(userID)

	s.log.Info("order finalized",
		zap.String("order_id", finalized.ID.String()),
		zap.String("intent_id", intentID),
		zap.Int64("user_id", userID),
		zap.String("total", finalized.TotalPrice.String()))

	return finalized, nil
}
