package repository

import (
	"context"
	"fmt"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

// ToggleWishlistItem adds the product to the user's wishlist, or removes it
// if it is already there. Returns whether the item ended up added.
func (r *Repository) ToggleWishlistItem(ctx context.Context, userID, productID int64) (bool, error) {
	query := `INSERT INTO wishlist_items (user_id, product_id, added_at)
	          VALUES ($1, $2, NOW())
	          ON CONFLICT (user_id, product_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return false, fmt.Errorf("add wishlist item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add wishlist item: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID); err != nil {
		return false, fmt.Errorf("remove wishlist item: %w", err)
	}
	return false, nil
}

func (r *Repository) ListWishlist(ctx context.Context, userID int64) ([]*domain.WishlistItem, error) {
	query := `SELECT user_id, product_id, added_at
	          FROM wishlist_items WHERE user_id = $1 ORDER BY added_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query wishlist: %w", err)
	}
	defer rows.Close()

	var items []*domain.WishlistItem
	for rows.Next() {
		var item domain.WishlistItem
		if err := rows.Scan(&item.UserID, &item.ProductID, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}
