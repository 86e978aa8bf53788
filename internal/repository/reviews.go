package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

func (r *Repository) CreateReview(ctx context.Context, review *domain.Review) error {
	query := `INSERT INTO reviews (user_id, product_id, rating, comment, created_at)
	          VALUES ($1, $2, $3, $4, NOW())
	          RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		review.UserID,
		review.ProductID,
		review.Rating,
		review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateReview
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *Repository) ListReviewsByProduct(ctx context.Context, productID int64) ([]*domain.Review, error) {
	query := `SELECT id, user_id, product_id, rating, comment, created_at
	          FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID,
			&review.UserID,
			&review.ProductID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, &review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return reviews, nil
}
