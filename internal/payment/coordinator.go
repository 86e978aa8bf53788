package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/domain"
)

var ErrPaymentSetupFailed = errors.New("payment setup failed")

// IntentStore persists intent lifecycle state so duplicate confirmations and
// webhooks resolve from local state instead of re-driving the processor.
type IntentStore interface {
	CreatePendingPayment(ctx context.Context, p *domain.PendingPayment) error
	GetPendingPayment(ctx context.Context, intentID string) (*domain.PendingPayment, error)
	UpdatePendingPaymentStatus(ctx context.Context, intentID string, status domain.PaymentStatus, declineReason string) error
}

// Coordinator owns the payment intent lifecycle:
// created -> requires_action -> succeeded | failed, terminal states sticky.
type Coordinator struct {
	processor Processor
	store     IntentStore
	timeout   time.Duration
	log       *zap.Logger
}

func NewCoordinator(processor Processor, store IntentStore, timeout time.Duration, log *zap.Logger) *Coordinator {
	return &Coordinator{
		processor: processor,
		store:     store,
		timeout:   timeout,
		log:       log,
	}
}

// CreateIntent opens a charge attempt with the processor for the given
// amount. A transport or processor failure surfaces ErrPaymentSetupFailed
// with no partial state; the caller simply re-invokes.
func (c *Coordinator) CreateIntent(ctx context.Context, userID int64, amount decimal.Decimal, currency string) (*domain.PendingPayment, string, error) {
	procCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	intent, err := c.processor.CreateIntent(procCtx, MinorUnits(amount), currency)
	if err != nil {
		c.log.Warn("processor create intent failed", zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", ErrPaymentSetupFailed, err)
	}

	pending := &domain.PendingPayment{
		IntentID: intent.ID,
		UserID:   userID,
		Amount:   amount.Round(2),
		Currency: currency,
		Status:   intent.Status,
	}
	if err := c.store.CreatePendingPayment(ctx, pending); err != nil {
		return nil, "", fmt.Errorf("persist pending payment: %w", err)
	}

	c.log.Info("payment intent created",
		zap.String("intent_id", intent.ID),
		zap.Int64("user_id", userID),
		zap.String("amount", pending.Amount.String()))

	return pending, intent.ClientSecret, nil
}

// Confirm drives the intent toward a terminal state. Confirming an intent
// that already succeeded or failed is a no-op returning the cached status;
// requires_action is a pending answer the caller re-polls, not an error.
func (c *Coordinator) Confirm(ctx context.Context, intentID string) (*domain.PendingPayment, error) {
	pending, err := c.store.GetPendingPayment(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if pending.Status.IsTerminal() {
		return pending, nil
	}

	procCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	intent, err := c.processor.ConfirmIntent(procCtx, intentID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// Confirmation did not resolve in time; report the pending state
			// instead of blocking the request further.
			return c.markStatus(ctx, pending, domain.PaymentStatusRequiresAction, "")
		}
		return nil, fmt.Errorf("confirm intent %s: %w", intentID, err)
	}

	return c.markStatus(ctx, pending, intent.Status, intent.DeclineReason)
}

// Status re-reads the intent, consulting the processor only while the local
// state is still non-terminal.
func (c *Coordinator) Status(ctx context.Context, intentID string) (*domain.PendingPayment, error) {
	pending, err := c.store.GetPendingPayment(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if pending.Status.IsTerminal() {
		return pending, nil
	}

	procCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	intent, err := c.processor.GetIntent(procCtx, intentID)
	if err != nil {
		// Stale local state is still an answer.
		c.log.Warn("processor status poll failed", zap.String("intent_id", intentID), zap.Error(err))
		return pending, nil
	}

	return c.markStatus(ctx, pending, intent.Status, intent.DeclineReason)
}

func (c *Coordinator) markStatus(ctx context.Context, pending *domain.PendingPayment, status domain.PaymentStatus, reason string) (*domain.PendingPayment, error) {
	if status != pending.Status {
		if err := c.store.UpdatePendingPaymentStatus(ctx, pending.IntentID, status, reason); err != nil {
			return nil, fmt.Errorf("record intent status: %w", err)
		}
		if status == domain.PaymentStatusFailed {
			c.log.Info("payment declined",
				zap.String("intent_id", pending.IntentID),
				zap.String("reason", reason))
		}
	}
	pending.Status = status
	pending.DeclineReason = reason
	return pending, nil
}
