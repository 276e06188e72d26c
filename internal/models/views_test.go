package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCartView(t *testing.T) {
	method := PaymentMethodWireTransfer
	addr := int64(7)
	cart := &Cart{
		Code:          "c1",
		Owner:         "alice@example.com",
		TotalPrice:    2400,
		AddressRef:    &addr,
		PaymentMethod: &method,
		Entries: []CartEntry{
			{Code: "e1", ProductRef: "P1", Quantity: 2, BasePrice: 1000, TotalPrice: 2000},
			{Code: "e2", ProductRef: "P2", Quantity: 1, BasePrice: 400, TotalPrice: 400},
		},
	}
	products := map[string]Product{
		"P1": {Ref: "P1", Name: "Keyboard", Price: 1000},
	}

	view := BuildCartView(cart, products)

	assert.Equal(t, "c1", view.Code)
	assert.Equal(t, int64(2400), view.TotalPrice)
	require.Len(t, view.Entries, 2)
	assert.Equal(t, "Keyboard", view.Entries[0].Product.Name)
	// Unresolved products leave a zero-valued product, never drop the line.
	assert.Empty(t, view.Entries[1].Product.Name)
	assert.Equal(t, int64(400), view.Entries[1].TotalPrice)
}

func TestBuildOrderView(t *testing.T) {
	order := &Order{
		Code:          "ORD-1",
		Owner:         "alice@example.com",
		TotalPrice:    2000,
		PaymentMethod: PaymentMethodWireTransfer,
		Status:        OrderStatusReady,
		Entries: []OrderEntry{
			{Code: "oe1", ProductRef: "P1", Quantity: 2, BasePrice: 1000, TotalPrice: 2000, ShippedAmount: 1},
		},
		Payments: []PaymentTransaction{
			{Method: PaymentMethodWireTransfer, Amount: 2000, Status: PaymentStatusWaitingForTransfer, BankName: "Acme Bank"},
		},
	}

	view := BuildOrderView(order, map[string]Product{
		"P1": {Ref: "P1", Name: "Keyboard"},
	})

	assert.Equal(t, OrderStatusReady, view.Status)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, 1, view.Entries[0].ShippedAmount)
	require.Len(t, view.Payments, 1)
	assert.Equal(t, "Acme Bank", view.Payments[0].BankName)
}

func TestCartFindEntry(t *testing.T) {
	cart := &Cart{Entries: []CartEntry{
		{Code: "e1", ProductRef: "P1"},
		{Code: "e2", ProductRef: "P2"},
	}}

	assert.Equal(t, "e2", cart.FindEntryByProduct("P2").Code)
	assert.Nil(t, cart.FindEntryByProduct("P3"))
	assert.Equal(t, "P1", cart.FindEntryByCode("e1").ProductRef)
	assert.Nil(t, cart.FindEntryByCode("e9"))
}
