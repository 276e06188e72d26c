package models

import "time"

// Event types
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypePaymentConfirmed   = "PAYMENT_CONFIRMED"
	EventTypePaymentReceived    = "PAYMENT_RECEIVED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published after a checkout commits
type OrderPlacedEvent struct {
	BaseEvent
	OrderCode     string          `json:"order_code"`
	Owner         string          `json:"owner"`
	TotalAmount   int64           `json:"total_amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Items         []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published on administrative status updates
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderCode string      `json:"order_code"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
}

// PaymentConfirmedEvent published when a payment settles
type PaymentConfirmedEvent struct {
	BaseEvent
	OrderCode    string `json:"order_code"`
	PaymentID    int64  `json:"payment_id"`
	Amount       int64  `json:"amount"`
	ProviderTxID string `json:"provider_tx_id"`
}

// PaymentReceivedEvent is the inbound bank-side settlement notification; the
// payment worker consumes it and confirms the payment.
type PaymentReceivedEvent struct {
	BaseEvent
	OrderCode    string        `json:"order_code"`
	Method       PaymentMethod `json:"method"`
	ProviderTxID string        `json:"provider_tx_id"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductRef string `json:"product_ref"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
}
