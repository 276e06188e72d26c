package service

import (
	"context"
	"time"

	"order-core/internal/models"
)

// CartStore is the durable cart repository consumed by the services. The
// sqlx-backed store implements it; tests substitute in-memory fakes.
type CartStore interface {
	GetCartByOwner(ctx context.Context, owner string) (*models.Cart, error)
	GetCartByCode(ctx context.Context, code string) (*models.Cart, error)
	GetOrCreateCart(ctx context.Context, owner string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	GetCartEntryByOwnerAndCode(ctx context.Context, owner, code string) (*models.CartEntry, error)
}

// OrderStore is the durable order repository. PlaceOrder must persist the
// order aggregate and delete the source cart as one transaction.
type OrderStore interface {
	PlaceOrder(ctx context.Context, order *models.Order, cartID int64) error
	GetOrderByCode(ctx context.Context, code string) (*models.Order, error)
	GetOrdersByOwner(ctx context.Context, owner string) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, code string, status models.OrderStatus) (*models.Order, error)
}

// SnapshotCache is the per-owner cart snapshot cache plus the checkout lock.
type SnapshotCache interface {
	Get(ctx context.Context, owner string) (*models.CartView, error)
	Set(ctx context.Context, owner string, view *models.CartView) error
	Delete(ctx context.Context, owner string) error
	ExtendTTL(ctx context.Context, owner string) error
	AcquireCheckoutLock(ctx context.Context, owner string, ttl time.Duration) (bool, error)
	ReleaseCheckoutLock(ctx context.Context, owner string) error
}
