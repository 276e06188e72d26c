package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-core/internal/models"
	"order-core/internal/payment"
	"order-core/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderEventPublisher publishes order lifecycle events to the broker. Best
// effort: checkout never fails because of it.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// CheckoutService converts a cart into an immutable order. The snapshot, its
// payment transaction and the cart deletion commit as one durable
// transaction; cache invalidation and event publishing happen after commit
// and are best effort.
type CheckoutService struct {
	cache      SnapshotCache
	cartStore  CartStore
	orderStore OrderStore
	registry   *payment.Registry
	products   ProductGateway
	publisher  OrderEventPublisher
	lockTTL    time.Duration
	logger     *zap.Logger
}

// NewCheckoutService creates the checkout orchestrator.
func NewCheckoutService(
	snapshotCache SnapshotCache,
	cartStore CartStore,
	orderStore OrderStore,
	registry *payment.Registry,
	products ProductGateway,
	publisher OrderEventPublisher,
	lockTTL time.Duration,
) *CheckoutService {
	return &CheckoutService{
		cache:      snapshotCache,
		cartStore:  cartStore,
		orderStore: orderStore,
		registry:   registry,
		products:   products,
		publisher:  publisher,
		lockTTL:    lockTTL,
		logger:     util.GetLogger(),
	}
}

// PlaceOrder checks out the owner's current cart. A second call while one is
// in flight for the same owner is rejected with models.ErrCheckoutInProgress;
// after the first commits, the cart is gone and a retry sees an empty cart.
func (s *CheckoutService) PlaceOrder(ctx context.Context, owner string) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "Checkout.PlaceOrder")
	defer span.End()

	cart, err := s.cartStore.GetCartByOwner(ctx, owner)
	if errors.Is(err, models.ErrNotFound) {
		util.CheckoutFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, fmt.Errorf("owner %s: %w", owner, models.ErrEmptyCart)
	}
	if err != nil {
		return nil, err
	}

	return s.checkout(ctx, cart)
}

// PlaceOrderByCartCode is the pay-later/administrative checkout path: it
// operates on a cart loaded by its code, bypassing the session read path, and
// forces wire transfer as the settlement method.
func (s *CheckoutService) PlaceOrderByCartCode(ctx context.Context, cartCode string) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "Checkout.PlaceOrderByCartCode")
	defer span.End()

	cart, err := s.cartStore.GetCartByCode(ctx, cartCode)
	if err != nil {
		return nil, err
	}

	method := models.PaymentMethodWireTransfer
	cart.PaymentMethod = &method

	return s.checkout(ctx, cart)
}

func (s *CheckoutService) checkout(ctx context.Context, cart *models.Cart) (*models.OrderView, error) {
	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	locked, err := s.cache.AcquireCheckoutLock(ctx, cart.Owner, s.lockTTL)
	if err != nil {
		// The lock is a duplicate-order guard, not a correctness
		// dependency; a dead cache must not block checkout.
		s.logger.Warn("Checkout lock unavailable, proceeding unguarded",
			zap.String("owner", cart.Owner), zap.Error(err))
	} else if !locked {
		util.CheckoutFailedTotal.WithLabelValues("in_progress").Inc()
		return nil, fmt.Errorf("owner %s: %w", cart.Owner, models.ErrCheckoutInProgress)
	} else {
		defer func() {
			if err := s.cache.ReleaseCheckoutLock(ctx, cart.Owner); err != nil {
				s.logger.Warn("Failed to release checkout lock",
					zap.String("owner", cart.Owner), zap.Error(err))
			}
		}()
	}

	if len(cart.Entries) == 0 {
		util.CheckoutFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, fmt.Errorf("cart %s: %w", cart.Code, models.ErrEmptyCart)
	}
	if cart.PaymentMethod == nil {
		util.CheckoutFailedTotal.WithLabelValues("no_payment_method").Inc()
		return nil, fmt.Errorf("cart %s: %w", cart.Code, models.ErrNoPaymentMethod)
	}

	processor, err := s.registry.Get(*cart.PaymentMethod)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("unknown_processor").Inc()
		return nil, err
	}

	order := snapshotCart(cart, util.NewOrderCode())
	s.logger.Info("Placing order",
		zap.String("owner", cart.Owner),
		zap.String("cart_code", cart.Code),
		zap.String("order_code", order.Code),
		zap.Int64("total", order.TotalPrice))

	tx, err := processor.CreatePayment(ctx, order)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("payment_error").Inc()
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	order.Payments = []models.PaymentTransaction{*tx}

	if err := s.placeOrderWithRetry(ctx, order, cart.ID); err != nil {
		util.CheckoutFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	util.OrdersPlacedTotal.Inc()

	// Post-commit cleanup is best effort: the order already owns its
	// immutable copy, and a stale snapshot is overwritten on next read.
	if err := s.cache.Delete(ctx, cart.Owner); err != nil {
		s.logger.Warn("Failed to invalidate cart snapshot after checkout",
			zap.String("owner", cart.Owner), zap.Error(err))
	}
	s.publishOrderPlaced(ctx, order)

	return s.assembleOrderView(ctx, order), nil
}

// placeOrderWithRetry regenerates the order code and retries the insert when
// it collides with an existing one, which can happen when two instances seed
// their counters close together. Any other failure is returned as-is.
func (s *CheckoutService) placeOrderWithRetry(ctx context.Context, order *models.Order, cartID int64) error {
	const maxAttempts = 3

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = s.orderStore.PlaceOrder(ctx, order, cartID)
		if !errors.Is(err, models.ErrDuplicateOrderCode) {
			return err
		}
		s.logger.Warn("Order code collision, regenerating",
			zap.String("order_code", order.Code))
		order.Code = util.NewOrderCode()
	}
	return err
}

// snapshotCart freezes a cart into a new READY order. Totals are recomputed
// so the snapshot cannot inherit drift; fulfillment counters start at zero.
func snapshotCart(cart *models.Cart, orderCode string) *models.Order {
	entries, total := RecalculateTotals(cart.Entries)

	order := &models.Order{
		Code:          orderCode,
		Owner:         cart.Owner,
		TotalPrice:    total,
		AddressRef:    cart.AddressRef,
		PaymentMethod: *cart.PaymentMethod,
		Status:        models.OrderStatusReady,
		Entries:       make([]models.OrderEntry, 0, len(entries)),
	}
	for _, e := range entries {
		order.Entries = append(order.Entries, models.OrderEntry{
			Code:       uuid.New().String(),
			ProductRef: e.ProductRef,
			Quantity:   e.Quantity,
			BasePrice:  e.BasePrice,
			TotalPrice: e.TotalPrice,
		})
	}
	return order
}

// assembleOrderView resolves product display data and translates the order.
// The order is already committed here, so resolution failures degrade the
// view instead of failing the checkout.
func (s *CheckoutService) assembleOrderView(ctx context.Context, order *models.Order) *models.OrderView {
	refs := make([]string, 0, len(order.Entries))
	for _, e := range order.Entries {
		refs = append(refs, e.ProductRef)
	}

	products, err := s.products.GetProducts(ctx, refs)
	if err != nil {
		s.logger.Warn("Failed to resolve products for order view",
			zap.String("order_code", order.Code), zap.Error(err))
		products = map[string]models.Product{}
	}
	return models.BuildOrderView(order, products)
}

func (s *CheckoutService) publishOrderPlaced(ctx context.Context, order *models.Order) {
	items := make([]models.OrderItemData, 0, len(order.Entries))
	for _, e := range order.Entries {
		items = append(items, models.OrderItemData{
			ProductRef: e.ProductRef,
			Quantity:   e.Quantity,
			UnitPrice:  e.BasePrice,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderCode:     order.Code,
		Owner:         order.Owner,
		TotalAmount:   order.TotalPrice,
		PaymentMethod: order.PaymentMethod,
		Items:         items,
	}

	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.String("order_code", order.Code), zap.Error(err))
	}
}
