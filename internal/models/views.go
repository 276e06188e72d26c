package models

import "time"

// CartView is the read-optimized cart snapshot kept in the cache: cart state
// plus resolved product display data. It is rebuilt wholesale from durable
// state, never patched field by field.
type CartView struct {
	Code          string          `json:"code"`
	Owner         string          `json:"owner"`
	TotalPrice    int64           `json:"total_price"`
	AddressRef    *int64          `json:"address_ref,omitempty"`
	PaymentMethod *PaymentMethod  `json:"payment_method,omitempty"`
	Entries       []CartEntryView `json:"entries"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CartEntryView is one cart line with its resolved product.
type CartEntryView struct {
	Code       string  `json:"code"`
	Product    Product `json:"product"`
	Quantity   int     `json:"quantity"`
	BasePrice  int64   `json:"base_price"`
	TotalPrice int64   `json:"total_price"`
}

// OrderView is the client-facing order shape.
type OrderView struct {
	Code          string                   `json:"code"`
	Owner         string                   `json:"owner"`
	TotalPrice    int64                    `json:"total_price"`
	AddressRef    *int64                   `json:"address_ref,omitempty"`
	PaymentMethod PaymentMethod            `json:"payment_method"`
	Status        OrderStatus              `json:"status"`
	Entries       []OrderEntryView         `json:"entries"`
	Payments      []PaymentTransactionView `json:"payments"`
	CreatedAt     time.Time                `json:"created_at"`
}

// OrderEntryView is one order line with its resolved product and fulfillment
// counters.
type OrderEntryView struct {
	Code           string  `json:"code"`
	Product        Product `json:"product"`
	Quantity       int     `json:"quantity"`
	BasePrice      int64   `json:"base_price"`
	TotalPrice     int64   `json:"total_price"`
	CanceledAmount int     `json:"canceled_amount"`
	ShippedAmount  int     `json:"shipped_amount"`
}

// PaymentTransactionView is the client-facing payment record.
type PaymentTransactionView struct {
	Method       PaymentMethod `json:"method"`
	ProviderTxID string        `json:"provider_tx_id,omitempty"`
	Amount       int64         `json:"amount"`
	Status       PaymentStatus `json:"status"`
	BankName     string        `json:"bank_name,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// BuildCartView translates a cart into its view shape. Pure: products must
// already be resolved, keyed by product ref; there are no lookups here.
func BuildCartView(cart *Cart, products map[string]Product) *CartView {
	view := &CartView{
		Code:          cart.Code,
		Owner:         cart.Owner,
		TotalPrice:    cart.TotalPrice,
		AddressRef:    cart.AddressRef,
		PaymentMethod: cart.PaymentMethod,
		Entries:       make([]CartEntryView, 0, len(cart.Entries)),
		UpdatedAt:     cart.UpdatedAt,
	}
	for _, e := range cart.Entries {
		view.Entries = append(view.Entries, CartEntryView{
			Code:       e.Code,
			Product:    products[e.ProductRef],
			Quantity:   e.Quantity,
			BasePrice:  e.BasePrice,
			TotalPrice: e.TotalPrice,
		})
	}
	return view
}

// BuildOrderView translates an order into its view shape. Pure, same contract
// as BuildCartView.
func BuildOrderView(order *Order, products map[string]Product) *OrderView {
	view := &OrderView{
		Code:          order.Code,
		Owner:         order.Owner,
		TotalPrice:    order.TotalPrice,
		AddressRef:    order.AddressRef,
		PaymentMethod: order.PaymentMethod,
		Status:        order.Status,
		Entries:       make([]OrderEntryView, 0, len(order.Entries)),
		Payments:      make([]PaymentTransactionView, 0, len(order.Payments)),
		CreatedAt:     order.CreatedAt,
	}
	for _, e := range order.Entries {
		view.Entries = append(view.Entries, OrderEntryView{
			Code:           e.Code,
			Product:        products[e.ProductRef],
			Quantity:       e.Quantity,
			BasePrice:      e.BasePrice,
			TotalPrice:     e.TotalPrice,
			CanceledAmount: e.CanceledAmount,
			ShippedAmount:  e.ShippedAmount,
		})
	}
	for _, p := range order.Payments {
		view.Payments = append(view.Payments, PaymentTransactionView{
			Method:       p.Method,
			ProviderTxID: p.ProviderTxID,
			Amount:       p.Amount,
			Status:       p.Status,
			BankName:     p.BankName,
			CreatedAt:    p.CreatedAt,
		})
	}
	return view
}
