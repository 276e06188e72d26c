package service

import (
	"context"
	"time"

	"order-core/internal/models"
	"order-core/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService is the read and administrative surface over placed orders.
type OrderService struct {
	orderStore OrderStore
	products   ProductGateway
	publisher  OrderEventPublisher
	logger     *zap.Logger
}

// NewOrderService creates the order query/admin service.
func NewOrderService(orderStore OrderStore, products ProductGateway, publisher OrderEventPublisher) *OrderService {
	return &OrderService{
		orderStore: orderStore,
		products:   products,
		publisher:  publisher,
		logger:     util.GetLogger(),
	}
}

// GetOrderByCode returns one order view.
func (s *OrderService) GetOrderByCode(ctx context.Context, code string) (*models.OrderView, error) {
	order, err := s.orderStore.GetOrderByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.assembleView(ctx, order), nil
}

// GetOrdersByOwner returns the owner's order views, most recent first.
func (s *OrderService) GetOrdersByOwner(ctx context.Context, owner string) ([]models.OrderView, error) {
	orders, err := s.orderStore.GetOrdersByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.assembleViews(ctx, orders), nil
}

// ListOrders returns all order views.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.OrderView, error) {
	orders, err := s.orderStore.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return s.assembleViews(ctx, orders), nil
}

// UpdateStatus moves an order to a new status. Transitions outside the legal
// graph are rejected by the store with models.ErrIllegalTransition.
func (s *OrderService) UpdateStatus(ctx context.Context, code string, status models.OrderStatus) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "Orders.UpdateStatus")
	defer span.End()

	order, err := s.orderStore.GetOrderByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	from := order.Status

	updated, err := s.orderStore.UpdateOrderStatus(ctx, code, status)
	if err != nil {
		return nil, err
	}

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderCode: code,
		From:      from,
		To:        status,
	}
	if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event",
			zap.String("order_code", code), zap.Error(err))
	}

	return s.assembleView(ctx, updated), nil
}

// assembleView resolves product display data; on lookup failure the view
// degrades to refs only rather than failing an otherwise valid read.
func (s *OrderService) assembleView(ctx context.Context, order *models.Order) *models.OrderView {
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

func (s *OrderService) assembleViews(ctx context.Context, orders []models.Order) []models.OrderView {
	views := make([]models.OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, *s.assembleView(ctx, &orders[i]))
	}
	return views
}
