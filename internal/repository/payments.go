package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

func (r *Repository) CreatePendingPayment(ctx context.Context, p *domain.PendingPayment) error {
	query := `INSERT INTO pending_payments (intent_id, user_id, amount, currency, status, decline_reason, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		p.IntentID,
		p.UserID,
		p.Amount,
		p.Currency,
		p.Status,
		p.DeclineReason)
	if err != nil {
		return fmt.Errorf("insert pending payment: %w", err)
	}
	return nil
}

func (r *Repository) GetPendingPayment(ctx context.Context, intentID string) (*domain.PendingPayment, error) {
	query := `SELECT intent_id, user_id, amount, currency, status, decline_reason, created_at, updated_at
	          FROM pending_payments WHERE intent_id = $1`

	var p domain.PendingPayment
	err := r.db.QueryRowContext(ctx, query, intentID).Scan(
		&p.IntentID,
		&p.UserID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.DeclineReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIntentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query pending payment: %w", err)
	}
	return &p, nil
}

// UpdatePendingPaymentStatus moves an intent through its lifecycle. Terminal
// states stick: a row already succeeded or failed is never overwritten, which
// keeps duplicate confirmations idempotent.
func (r *Repository) UpdatePendingPaymentStatus(ctx context.Context, intentID string, status domain.PaymentStatus, declineReason string) error {
	query := `UPDATE pending_payments
	          SET status = $2, decline_reason = $3, updated_at = NOW()
	          WHERE intent_id = $1 AND status NOT IN ('succeeded', 'failed')`

	result, err := r.db.ExecContext(ctx, query, intentID, status, declineReason)
	if err != nil {
		return fmt.Errorf("update pending payment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pending payment status: %w", err)
	}
	if affected == 0 {
		// Either the intent is unknown or already terminal; distinguish for
		// the caller.
		if _, getErr := r.GetPendingPayment(ctx, intentID); getErr != nil {
			return getErr
		}
	}
	return nil
}
