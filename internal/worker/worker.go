package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"order-core/internal/broker"
	"order-core/internal/models"
	"order-core/internal/payment"
	"order-core/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentWorker consumes bank-side settlement notifications and confirms the
// matching payments. This is the out-of-band half of the payment flow: orders
// sit in READY / WAITING_FOR_TRANSFER until a notification arrives.
type PaymentWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	registry     *payment.Registry
	publisher    *broker.EventPublisher
	logger       *zap.Logger
}

// NewPaymentWorker creates a payment confirmation worker.
func NewPaymentWorker(consumer *broker.Consumer, registry *payment.Registry, publisher *broker.EventPublisher) *PaymentWorker {
	w := &PaymentWorker{
		consumer:  consumer,
		registry:  registry,
		publisher: publisher,
		logger:    util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnPaymentReceived(w.handlePaymentReceived)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *PaymentWorker) Start(ctx context.Context) error {
	log.Println("Starting payment worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *PaymentWorker) Stop() error {
	log.Println("Stopping payment worker...")
	return w.consumer.Close()
}

func (w *PaymentWorker) handlePaymentReceived(ctx context.Context, event *models.PaymentReceivedEvent) error {
	w.logger.Info("Payment notification received",
		zap.String("order_code", event.OrderCode),
		zap.String("method", string(event.Method)),
		zap.String("provider_tx_id", event.ProviderTxID))

	processor, err := w.registry.Get(event.Method)
	if err != nil {
		// Unroutable notification; retrying won't help, drop it.
		w.logger.Error("No processor for payment notification",
			zap.String("order_code", event.OrderCode),
			zap.String("method", string(event.Method)))
		return nil
	}

	tx, err := processor.ConfirmPayment(ctx, event.OrderCode, event.ProviderTxID)
	if errors.Is(err, models.ErrIllegalTransition) || errors.Is(err, models.ErrNotFound) {
		// Duplicate or stray notification; redelivery cannot succeed, drop
		// it so the consumer commits.
		w.logger.Warn("Dropping unconfirmable payment notification",
			zap.String("order_code", event.OrderCode), zap.Error(err))
		return nil
	}
	if err != nil {
		return err
	}

	confirmed := &models.PaymentConfirmedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentConfirmed,
			Timestamp: time.Now(),
		},
		OrderCode:    event.OrderCode,
		PaymentID:    tx.ID,
		Amount:       tx.Amount,
		ProviderTxID: tx.ProviderTxID,
	}
	if err := w.publisher.PublishPaymentConfirmed(ctx, confirmed); err != nil {
		// The settlement is already durable; the downstream event is best
		// effort.
		w.logger.Error("Failed to publish PaymentConfirmed event",
			zap.String("order_code", event.OrderCode), zap.Error(err))
	}
	return nil
}
