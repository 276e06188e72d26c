package models

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderStatusReady           OrderStatus = "READY"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusProcessing      OrderStatus = "PROCESSING"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusReturnRequested OrderStatus = "RETURN_REQUESTED"
	OrderStatusReturned        OrderStatus = "RETURNED"
	OrderStatusRefunded        OrderStatus = "REFUNDED"
)

// orderTransitions is the legal transition graph. CANCELED and REFUNDED are
// terminal. RETURN_REQUESTED may fall back to DELIVERED when the request is
// withdrawn.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusReady:           {OrderStatusPaid, OrderStatusCanceled},
	OrderStatusPaid:            {OrderStatusProcessing, OrderStatusCanceled, OrderStatusRefunded},
	OrderStatusProcessing:      {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped:         {OrderStatusDelivered},
	OrderStatusDelivered:       {OrderStatusReturnRequested},
	OrderStatusReturnRequested: {OrderStatusReturned, OrderStatusDelivered},
	OrderStatusReturned:        {OrderStatusRefunded},
	OrderStatusCanceled:        {},
	OrderStatusRefunded:        {},
}

// ParseOrderStatus validates a client-supplied status string.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	if _, ok := orderTransitions[OrderStatus(s)]; ok {
		return OrderStatus(s), true
	}
	return "", false
}

// CanTransition reports whether moving from s to target is legal.
func (s OrderStatus) CanTransition(target OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}
