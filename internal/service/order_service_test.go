package service

import (
	"context"
	"errors"
	"testing"

	"order-core/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(orders *fakeOrderStore, code string, status models.OrderStatus) *models.Order {
	order := &models.Order{
		Code:          code,
		Owner:         "alice@example.com",
		TotalPrice:    2400,
		PaymentMethod: models.PaymentMethodWireTransfer,
		Status:        status,
		Entries: []models.OrderEntry{
			{Code: "oe1", ProductRef: "P1", Quantity: 2, BasePrice: 1000, TotalPrice: 2000},
		},
	}
	orders.orders[code] = order
	return order
}

func TestGetOrderByCode(t *testing.T) {
	orders := newFakeOrderStore()
	seedOrder(orders, "ORD-1", models.OrderStatusReady)
	svc := NewOrderService(orders, testCatalog(), &fakePublisher{})

	view, err := svc.GetOrderByCode(context.Background(), "ORD-1")

	require.NoError(t, err)
	assert.Equal(t, "ORD-1", view.Code)
	assert.Equal(t, "Keyboard", view.Entries[0].Product.Name)
}

func TestGetOrderByCode_NotFound(t *testing.T) {
	svc := NewOrderService(newFakeOrderStore(), testCatalog(), &fakePublisher{})

	_, err := svc.GetOrderByCode(context.Background(), "nope")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetOrderByCode_DegradesWhenProductLookupFails(t *testing.T) {
	orders := newFakeOrderStore()
	seedOrder(orders, "ORD-1", models.OrderStatusReady)
	products := &fakeProductGateway{err: errors.New("product service down")}
	svc := NewOrderService(orders, products, &fakePublisher{})

	view, err := svc.GetOrderByCode(context.Background(), "ORD-1")

	require.NoError(t, err)
	assert.Equal(t, "P1", view.Entries[0].Product.Ref)
	assert.Empty(t, view.Entries[0].Product.Name)
}

func TestGetOrdersByOwner(t *testing.T) {
	orders := newFakeOrderStore()
	seedOrder(orders, "ORD-1", models.OrderStatusReady)
	seedOrder(orders, "ORD-2", models.OrderStatusPaid)
	svc := NewOrderService(orders, testCatalog(), &fakePublisher{})

	views, err := svc.GetOrdersByOwner(context.Background(), "alice@example.com")

	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestUpdateStatus_LegalTransitionPublishesEvent(t *testing.T) {
	orders := newFakeOrderStore()
	seedOrder(orders, "ORD-1", models.OrderStatusPaid)
	publisher := &fakePublisher{}
	svc := NewOrderService(orders, testCatalog(), publisher)

	view, err := svc.UpdateStatus(context.Background(), "ORD-1", models.OrderStatusProcessing)

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, view.Status)
	require.Len(t, publisher.statusChanged, 1)
	assert.Equal(t, models.OrderStatusPaid, publisher.statusChanged[0].From)
	assert.Equal(t, models.OrderStatusProcessing, publisher.statusChanged[0].To)
}

func TestUpdateStatus_IllegalTransitionRejected(t *testing.T) {
	orders := newFakeOrderStore()
	seedOrder(orders, "ORD-1", models.OrderStatusReady)
	publisher := &fakePublisher{}
	svc := NewOrderService(orders, testCatalog(), publisher)

	_, err := svc.UpdateStatus(context.Background(), "ORD-1", models.OrderStatusShipped)

	assert.ErrorIs(t, err, models.ErrIllegalTransition)
	assert.Empty(t, publisher.statusChanged)
	assert.Equal(t, models.OrderStatusReady, orders.orders["ORD-1"].Status)
}
