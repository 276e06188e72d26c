package models

import "errors"

// Domain error kinds. Services never swallow these; the HTTP layer maps each
// to a distinct client-visible status with errors.Is.
var (
	// ErrNotFound covers absent carts, entries and orders.
	ErrNotFound = errors.New("not found")

	// ErrEmptyCart is returned by checkout on a cart with zero entries.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInvalidOwnership is returned when an entry or cart code does not
	// belong to the calling owner.
	ErrInvalidOwnership = errors.New("resource does not belong to caller")

	// ErrUnknownProcessor is returned when no payment processor is
	// registered for a payment method.
	ErrUnknownProcessor = errors.New("no processor registered for payment method")

	// ErrUpstreamUnavailable is returned when the product or customer
	// service failed or timed out.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrConflict is returned when a cart write lost the optimistic version
	// check to a concurrent mutation.
	ErrConflict = errors.New("cart was modified concurrently")

	// ErrCheckoutInProgress is returned when a checkout is already running
	// for the owner's cart.
	ErrCheckoutInProgress = errors.New("checkout already in progress")

	// ErrIllegalTransition is returned for order status updates outside the
	// transition table.
	ErrIllegalTransition = errors.New("illegal order status transition")

	// ErrNoPaymentMethod is returned by checkout when the cart has no
	// payment method selected.
	ErrNoPaymentMethod = errors.New("cart has no payment method")

	// ErrDuplicateOrderCode is returned when an order insert collides with an
	// existing code. Checkout retries with a fresh code instead of surfacing
	// it to the client.
	ErrDuplicateOrderCode = errors.New("order code already taken")
)
