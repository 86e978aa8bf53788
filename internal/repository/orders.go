package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

const orderColumns = `id, intent_id, user_id, status, total_price, currency, payment_method, shipping_address, items, created_at, updated_at`

// FinalizeOrder converts a paid cart into a persisted order as one atomic
// unit: insert the order snapshot, decrement inventory for every line with a
// conditional update, delete the user's cart rows, and queue the outbox
// event. Any failure rolls back the whole thing.
//
// If an order already exists for the intent (duplicate webhook, double
// click), the existing order is returned and nothing is decremented again.
func (r *Repository) FinalizeOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin finalize transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := getOrderByIntentIDTx(ctx, tx, order.IntentID)
	if err != nil && !errors.Is(err, ErrOrderNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	// Conditional decrement: zero rows affected means stock moved since the
	// cart was built, and the whole finalization fails.
	for _, item := range order.Items {
		result, err := tx.ExecContext(ctx,
			`UPDATE products SET inventory = inventory - $2 WHERE id = $1 AND inventory >= $2`,
			item.ProductID, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement inventory for product %d: %w", item.ProductID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("decrement inventory for product %d: %w", item.ProductID, err)
		}
		if affected == 0 {
			var available int
			scanErr := tx.QueryRowContext(ctx,
				`SELECT inventory FROM products WHERE id = $1`, item.ProductID).Scan(&available)
			if scanErr != nil {
				available = 0
			}
			return nil, &InventoryChangedError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: available,
			}
		}
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order items: %w", err)
	}

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, intent_id, user_id, status, total_price, currency, payment_method, shipping_address, items, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		order.ID,
		order.IntentID,
		order.UserID,
		order.Status,
		order.TotalPrice,
		order.Currency,
		order.PaymentMethod,
		order.ShippingAddress,
		itemsJSON,
		now)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// Lost the race against a concurrent finalize for the same
			// intent; the transaction rolls back and the winner's order is
			// returned from a fresh read.
			return r.GetOrderByIntentID(ctx, order.IntentID)
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`, order.UserID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"order_id":     order.ID,
		"intent_id":    order.IntentID,
		"user_id":      order.UserID,
		"total_price":  order.TotalPrice,
		"currency":     order.Currency,
		"items":        order.Items,
		"finalized_at": now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event payload: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4)`,
		order.ID.String(), "order.finalized", payload, now); err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit finalize transaction: %w", err)
	}

	return order, nil
}

func getOrderByIntentIDTx(ctx context.Context, tx *sql.Tx, intentID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE intent_id = $1`
	return scanOrder(tx.QueryRowContext(ctx, query, intentID))
}

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var order domain.Order
	var itemsJSON []byte
	err := row.Scan(
		&order.ID,
		&order.IntentID,
		&order.UserID,
		&order.Status,
		&order.TotalPrice,
		&order.Currency,
		&order.PaymentMethod,
		&order.ShippingAddress,
		&itemsJSON,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &order, nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetOrderByIntentID(ctx context.Context, intentID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE intent_id = $1`
	return scanOrder(r.db.QueryRowContext(ctx, query, intentID))
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *Repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkOrderProcessing moves a pending order into processing. Redelivered
// events find the order already advanced and change nothing.
func (r *Repository) MarkOrderProcessing(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE orders SET status = $2, updated_at = NOW()
	          WHERE id = $1 AND status = $3`

	if _, err := r.db.ExecContext(ctx, query,
		id, domain.OrderStatusProcessing, domain.OrderStatusPending); err != nil {
		return fmt.Errorf("mark order processing: %w", err)
	}
	return nil
}
