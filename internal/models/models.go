package models

import "time"

// PaymentMethod identifies a settlement strategy. Every method must have a
// processor registered at startup; nothing else in the core branches on it.
type PaymentMethod string

const (
	PaymentMethodWireTransfer PaymentMethod = "WIRE_TRANSFER"
)

// ParsePaymentMethod validates a client-supplied payment method string.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PaymentMethodWireTransfer:
		return PaymentMethod(s), true
	}
	return "", false
}

// PaymentStatus is the lifecycle of a single payment transaction.
type PaymentStatus string

const (
	PaymentStatusWaitingForTransfer PaymentStatus = "WAITING_FOR_TRANSFER"
	PaymentStatusCompleted          PaymentStatus = "COMPLETED"
)

// Cart is the mutable, per-owner collection of line items. TotalPrice is
// derived: it must always equal the sum of entry totals after a mutation
// completes. Version backs the optimistic write check in the store.
type Cart struct {
	ID            int64          `db:"id" json:"id"`
	Code          string         `db:"code" json:"code"`
	Owner         string         `db:"owner" json:"owner"`
	TotalPrice    int64          `db:"total_price" json:"total_price"`
	AddressRef    *int64         `db:"address_ref" json:"address_ref,omitempty"`
	PaymentMethod *PaymentMethod `db:"payment_method" json:"payment_method,omitempty"`
	Version       int64          `db:"version" json:"-"`
	Entries       []CartEntry    `db:"-" json:"entries"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// FindEntryByProduct returns the entry holding productRef, if any. Quantities
// accumulate on repeat add, so there is at most one per product.
func (c *Cart) FindEntryByProduct(productRef string) *CartEntry {
	for i := range c.Entries {
		if c.Entries[i].ProductRef == productRef {
			return &c.Entries[i]
		}
	}
	return nil
}

// FindEntryByCode returns the entry with the given opaque code, if any.
func (c *Cart) FindEntryByCode(code string) *CartEntry {
	for i := range c.Entries {
		if c.Entries[i].Code == code {
			return &c.Entries[i]
		}
	}
	return nil
}

// CartEntry is one line item, at most one per distinct product. BasePrice is
// snapshotted from the product service at add/update time, not live.
type CartEntry struct {
	ID         int64     `db:"id" json:"id"`
	CartID     int64     `db:"cart_id" json:"cart_id"`
	Code       string    `db:"code" json:"code"`
	Owner      string    `db:"owner" json:"owner"`
	ProductRef string    `db:"product_ref" json:"product_ref"`
	Quantity   int       `db:"quantity" json:"quantity"`
	BasePrice  int64     `db:"base_price" json:"base_price"`
	TotalPrice int64     `db:"total_price" json:"total_price"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Order is the immutable snapshot of a cart taken at checkout. Entries and
// total are frozen copies; later cart mutations never touch them.
type Order struct {
	ID            int64                `db:"id" json:"id"`
	Code          string               `db:"code" json:"code"`
	Owner         string               `db:"owner" json:"owner"`
	TotalPrice    int64                `db:"total_price" json:"total_price"`
	AddressRef    *int64               `db:"address_ref" json:"address_ref,omitempty"`
	PaymentMethod PaymentMethod        `db:"payment_method" json:"payment_method"`
	Status        OrderStatus          `db:"status" json:"status"`
	Entries       []OrderEntry         `db:"-" json:"entries"`
	Payments      []PaymentTransaction `db:"-" json:"payments"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `db:"updated_at" json:"updated_at"`
}

// OrderEntry is a line item copied from a CartEntry at checkout. The
// fulfillment counters start at zero and never exceed Quantity.
type OrderEntry struct {
	ID             int64     `db:"id" json:"id"`
	OrderID        int64     `db:"order_id" json:"order_id"`
	Code           string    `db:"code" json:"code"`
	ProductRef     string    `db:"product_ref" json:"product_ref"`
	Quantity       int       `db:"quantity" json:"quantity"`
	BasePrice      int64     `db:"base_price" json:"base_price"`
	TotalPrice     int64     `db:"total_price" json:"total_price"`
	CanceledAmount int       `db:"canceled_amount" json:"canceled_amount"`
	ShippedAmount  int       `db:"shipped_amount" json:"shipped_amount"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PaymentTransaction is one settlement record for an order. An order may
// accumulate several (retries, reconciliation). ProviderTxID stays empty
// until the payment settles.
type PaymentTransaction struct {
	ID           int64         `db:"id" json:"id"`
	OrderID      int64         `db:"order_id" json:"order_id"`
	Method       PaymentMethod `db:"method" json:"method"`
	ProviderTxID string        `db:"provider_tx_id" json:"provider_tx_id,omitempty"`
	Amount       int64         `db:"amount" json:"amount"`
	Status       PaymentStatus `db:"status" json:"status"`
	BankName     string        `db:"bank_name" json:"bank_name,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// Product is the externally-owned catalog record, referenced by opaque code.
// Prices are minor units (cents).
type Product struct {
	Ref      string `json:"ref"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url,omitempty"`
}

// Address is the externally-owned customer address, referenced by numeric id.
// The cart stores only the reference.
type Address struct {
	ID      int64  `json:"id"`
	Line1   string `json:"line1,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}
