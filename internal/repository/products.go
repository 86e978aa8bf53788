package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

const productColumns = `id, name, description, price, sale_price, inventory, category_id, seller_id, image_url, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var p domain.Product
	var salePrice decimal.NullDecimal
	var sellerID sql.NullInt64
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&salePrice,
		&p.Inventory,
		&p.CategoryID,
		&sellerID,
		&p.ImageURL,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if salePrice.Valid {
		p.SalePrice = &salePrice.Decimal
	}
	if sellerID.Valid {
		p.SellerID = &sellerID.Int64
	}
	return &p, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return product, nil
}

// GetProducts fetches current state for the given ids in one round trip.
// Checkout uses it to re-price a cart instead of trusting display prices.
func (r *Repository) GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make(map[int64]domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products[p.ID] = *p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

// RestockProduct adds stock for a product and returns the updated row.
// This is the only inventory mutation outside the finalize transaction.
func (r *Repository) RestockProduct(ctx context.Context, id int64, quantity int) (*domain.Product, error) {
	query := `UPDATE products SET inventory = inventory + $2 WHERE id = $1
	          RETURNING ` + productColumns

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id, quantity))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("restock product: %w", err)
	}
	return product, nil
}
