package payment

import (
	"context"
	"fmt"

	"order-core/internal/models"
)

// Store is the slice of persistence the processors need. The sqlx store
// implements it.
type Store interface {
	GetOrderByCode(ctx context.Context, code string) (*models.Order, error)
	SetOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) error
	CreatePaymentTransaction(ctx context.Context, p *models.PaymentTransaction) error
	GetPaymentByOrderCode(ctx context.Context, orderCode string) (*models.PaymentTransaction, error)
	UpdatePaymentStatus(ctx context.Context, paymentID int64, status models.PaymentStatus, providerTxID string) error
}

// Processor is the settlement strategy for exactly one payment method.
type Processor interface {
	// Method returns the payment method this processor settles.
	Method() models.PaymentMethod

	// CreatePayment builds the order's initial payment transaction in the
	// method-specific awaiting-settlement status. It must not mutate the
	// order's status; the checkout transaction persists the returned row
	// together with the order.
	CreatePayment(ctx context.Context, order *models.Order) (*models.PaymentTransaction, error)

	// UpdatePaymentTransaction appends a follow-up transaction record
	// reflecting a status change (reconciliation, retries).
	UpdatePaymentTransaction(ctx context.Context, order *models.Order, status models.PaymentStatus) (*models.PaymentTransaction, error)

	// ConfirmPayment marks the order's transaction settled and advances the
	// order from READY to PAID, returning the settled transaction.
	ConfirmPayment(ctx context.Context, orderCode, providerTxID string) (*models.PaymentTransaction, error)
}

// Registry maps payment methods to processor instances, populated once at
// startup. Nothing else in the core branches on payment method.
type Registry struct {
	processors map[models.PaymentMethod]Processor
}

// NewRegistry builds the registry from the given processors.
func NewRegistry(processors ...Processor) *Registry {
	m := make(map[models.PaymentMethod]Processor, len(processors))
	for _, p := range processors {
		m[p.Method()] = p
	}
	return &Registry{processors: m}
}

// Get returns the processor for the method, or models.ErrUnknownProcessor.
func (r *Registry) Get(method models.PaymentMethod) (Processor, error) {
	p, ok := r.processors[method]
	if !ok {
		return nil, fmt.Errorf("payment method %s: %w", method, models.ErrUnknownProcessor)
	}
	return p, nil
}
