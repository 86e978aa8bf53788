package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/cache"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/inventory"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Repository is the cart slice of the store.
type Repository interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddCartItem(ctx context.Context, userID, productID int64, quantity int) error
	UpdateCartItemQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveCartItem(ctx context.Context, userID, productID int64) error
	DeleteCart(ctx context.Context, userID int64) error
}

type Service struct {
	repo  Repository
	cache cache.CartCache
	guard *inventory.Guard
	log   *zap.Logger
	sfg   singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, cartCache cache.CartCache, guard *inventory.Guard, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cartCache,
		guard: guard,
		log:   log,
	}
}

func (s *Service) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(fmt.Sprint(userID), func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cache get error", zap.Error(err)) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				s.log.Warn("cache set error", zap.Error(errSet))
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem validates the requested quantity against current stock before
// touching the cart; re-adding an existing product increments its line.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	if err := s.guard.Reserve(ctx, userID, productID, quantity); err != nil {
		return err
	}

	if err := s.repo.AddCartItem(ctx, userID, productID, quantity); err != nil {
		s.log.Error("repo add item error", zap.Error(err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	if err := s.repo.UpdateCartItemQuantity(ctx, userID, productID, quantity); err != nil {
		s.log.Error("repo update item quantity error", zap.Error(err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID int64) error {
	if err := s.repo.RemoveCartItem(ctx, userID, productID); err != nil {
		s.log.Error("repo remove item error", zap.Error(err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) ClearCart(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteCart(ctx, userID); err != nil {
		s.log.Error("repo delete cart error", zap.Error(err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// InvalidateCache drops the cached cart for a user. Checkout calls this
// after finalization clears the cart rows.
func (s *Service) InvalidateCache(userID int64) {
	s.invalidateCache(userID)
}

func (s *Service) invalidateCache(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cache invalidate error", zap.Error(err))
	}
}
