package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

func (r *Repository) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	query := `SELECT user_id, product_id, quantity, added_at
	          FROM cart_items WHERE user_id = $1 ORDER BY added_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	cart := &domain.Cart{UserID: userID, UpdatedAt: time.Now()}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.UserID, &item.ProductID, &item.Quantity, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return cart, nil
}

func (r *Repository) GetCartItem(ctx context.Context, userID, productID int64) (*domain.CartItem, error) {
	query := `SELECT user_id, product_id, quantity, added_at
	          FROM cart_items WHERE user_id = $1 AND product_id = $2`

	var item domain.CartItem
	err := r.db.QueryRowContext(ctx, query, userID, productID).Scan(
		&item.UserID, &item.ProductID, &item.Quantity, &item.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart item: %w", err)
	}
	return &item, nil
}

// AddCartItem inserts a line or increments the quantity of an existing one;
// (user_id, product_id) stays unique either way.
func (r *Repository) AddCartItem(ctx context.Context, userID, productID int64, quantity int) error {
	query := `INSERT INTO cart_items (user_id, product_id, quantity, added_at)
	          VALUES ($1, $2, $3, NOW())
	          ON CONFLICT (user_id, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	if _, err := r.db.ExecContext(ctx, query, userID, productID, quantity); err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCartItemQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	query := `UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("update cart item quantity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update cart item quantity: %w", err)
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *Repository) RemoveCartItem(ctx context.Context, userID, productID int64) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *Repository) DeleteCart(ctx context.Context, userID int64) error {
	query := `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
