package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/pricing"
)

// priceTolerance is the largest difference between the intent amount and the
// re-priced total that still counts as rounding noise.
var priceTolerance = decimal.RequireFromString("0.01")

// Store is the persistence slice checkout needs.
// Consumers define this interface, not the postgres implementation.
type Store interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	GetOrderByIntentID(ctx context.Context, intentID string) (*domain.Order, error)
	FinalizeOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
}

// IntentCoordinator is the payment coordinator's surface used here.
type IntentCoordinator interface {
	CreateIntent(ctx context.Context, userID int64, amount decimal.Decimal, currency string) (*domain.PendingPayment, string, error)
	Confirm(ctx context.Context, intentID string) (*domain.PendingPayment, error)
	Status(ctx context.Context, intentID string) (*domain.PendingPayment, error)
}

// CacheInvalidator drops a user's cached cart after finalization empties it.
type CacheInvalidator interface {
	InvalidateCache(userID int64)
}

type Service struct {
	store    Store
	payments IntentCoordinator
	carts    CacheInvalidator
	log      *zap.Logger
}

func NewService(store Store, payments IntentCoordinator, carts CacheInvalidator, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		payments: payments,
		carts:    carts,
		log:      log,
	}
}

// Intent is what the client needs to drive the processor's payment widget.
type Intent struct {
	IntentID     string          `json:"intent_id"`
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// snapshotAndPrice atomically reads the user's cart and prices it against
// current product state. Display prices the cart was built with play no part.
func (s *Service) snapshotAndPrice(ctx context.Context, userID int64) (*domain.Cart, *pricing.Totals, error) {
	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, nil, ErrEmptyCart
	}

	ids := make([]int64, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ProductID
	}

	products, err := s.store.GetProducts(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get products: %w", err)
	}

	totals, err := pricing.ComputeTotals(cart.Items, products)
	if err != nil {
		return nil, nil, err
	}
	return cart, totals, nil
}
