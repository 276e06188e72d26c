package payment

import (
	"context"
	"fmt"

	"order-core/internal/models"
	"order-core/internal/util"

	"go.uber.org/zap"
)

// WireTransferProcessor settles orders paid by bank wire. A created payment
// waits in WAITING_FOR_TRANSFER until the bank notification confirms it.
type WireTransferProcessor struct {
	store    Store
	bankName string
	logger   *zap.Logger
}

// NewWireTransferProcessor creates a wire transfer processor.
func NewWireTransferProcessor(store Store, bankName string) *WireTransferProcessor {
	return &WireTransferProcessor{
		store:    store,
		bankName: bankName,
		logger:   util.GetLogger(),
	}
}

func (p *WireTransferProcessor) Method() models.PaymentMethod {
	return models.PaymentMethodWireTransfer
}

func (p *WireTransferProcessor) CreatePayment(ctx context.Context, order *models.Order) (*models.PaymentTransaction, error) {
	p.logger.Info("Creating wire transfer payment",
		zap.String("order_code", order.Code),
		zap.Int64("amount", order.TotalPrice))

	util.PaymentsCreatedTotal.WithLabelValues(string(p.Method())).Inc()

	return &models.PaymentTransaction{
		Method:   models.PaymentMethodWireTransfer,
		Amount:   order.TotalPrice,
		Status:   models.PaymentStatusWaitingForTransfer,
		BankName: p.bankName,
	}, nil
}

func (p *WireTransferProcessor) UpdatePaymentTransaction(ctx context.Context, order *models.Order, status models.PaymentStatus) (*models.PaymentTransaction, error) {
	p.logger.Info("Appending wire transfer transaction",
		zap.String("order_code", order.Code),
		zap.String("status", string(status)))

	tx := &models.PaymentTransaction{
		OrderID:  order.ID,
		Method:   models.PaymentMethodWireTransfer,
		Amount:   order.TotalPrice,
		Status:   status,
		BankName: p.bankName,
	}
	if err := p.store.CreatePaymentTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (p *WireTransferProcessor) ConfirmPayment(ctx context.Context, orderCode, providerTxID string) (*models.PaymentTransaction, error) {
	p.logger.Info("Confirming wire transfer",
		zap.String("order_code", orderCode),
		zap.String("provider_tx_id", providerTxID))

	tx, err := p.store.GetPaymentByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}

	order, err := p.store.GetOrderByCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(models.OrderStatusPaid) {
		return nil, fmt.Errorf("order %s in status %s: %w",
			orderCode, order.Status, models.ErrIllegalTransition)
	}

	if err := p.store.UpdatePaymentStatus(ctx, tx.ID, models.PaymentStatusCompleted, providerTxID); err != nil {
		return nil, fmt.Errorf("failed to settle payment: %w", err)
	}

	if err := p.store.SetOrderStatus(ctx, order.ID, models.OrderStatusPaid); err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}
	tx.Status = models.PaymentStatusCompleted
	tx.ProviderTxID = providerTxID

	util.PaymentsConfirmedTotal.WithLabelValues(string(p.Method())).Inc()
	p.logger.Info("Wire transfer confirmed",
		zap.String("order_code", orderCode),
		zap.Int64("payment_id", tx.ID))
	return tx, nil
}
