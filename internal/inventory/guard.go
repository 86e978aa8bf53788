package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/repository"
)

// InsufficientError reports how much stock is actually available when a
// requested quantity cannot be satisfied.
type InsufficientError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient inventory for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// ProductReader is the slice of the store the guard needs.
// Consumers define this interface, not the postgres implementation.
type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type CartReader interface {
	GetCartItem(ctx context.Context, userID, productID int64) (*domain.CartItem, error)
}

type Guard struct {
	products ProductReader
	carts    CartReader
}

func NewGuard(products ProductReader, carts CartReader) *Guard {
	return &Guard{products: products, carts: carts}
}

// Reserve validates an add-to-cart request: the user's existing cart quantity
// plus the requested delta must not exceed current inventory. It does not
// mutate stock; the authoritative re-check and decrement happen inside the
// finalization transaction.
func (g *Guard) Reserve(ctx context.Context, userID, productID int64, delta int) error {
	if delta < 1 {
		return fmt.Errorf("reserve delta must be at least 1, got %d", delta)
	}

	product, err := g.products.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to load product %d: %w", productID, err)
	}

	existing := 0
	item, err := g.carts.GetCartItem(ctx, userID, productID)
	if err == nil && item != nil {
		existing = item.Quantity
	} else if err != nil && !errors.Is(err, repository.ErrCartItemNotFound) {
		return fmt.Errorf("failed to load cart item: %w", err)
	}

	requested := existing + delta
	if requested > product.Inventory {
		return &InsufficientError{
			ProductID: productID,
			Requested: requested,
			Available: product.Inventory,
		}
	}

	return nil
}
