package service

import (
	"context"
	"fmt"
	"time"

	"order-core/internal/cache"
	"order-core/internal/models"
)

// fakeCartStore implements CartStore in memory, keyed by owner.
type fakeCartStore struct {
	carts     map[string]*models.Cart
	saveErr   error
	saveCalls int
	nextID    int64
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[string]*models.Cart{}}
}

func (f *fakeCartStore) GetCartByOwner(_ context.Context, owner string) (*models.Cart, error) {
	cart, ok := f.carts[owner]
	if !ok {
		return nil, fmt.Errorf("cart for owner %s: %w", owner, models.ErrNotFound)
	}
	return cart, nil
}

func (f *fakeCartStore) GetCartByCode(_ context.Context, code string) (*models.Cart, error) {
	for _, cart := range f.carts {
		if cart.Code == code {
			return cart, nil
		}
	}
	return nil, fmt.Errorf("cart %s: %w", code, models.ErrNotFound)
}

func (f *fakeCartStore) GetOrCreateCart(_ context.Context, owner string) (*models.Cart, error) {
	if cart, ok := f.carts[owner]; ok {
		return cart, nil
	}
	f.nextID++
	cart := &models.Cart{
		ID:    f.nextID,
		Code:  fmt.Sprintf("cart-%d", f.nextID),
		Owner: owner,
	}
	f.carts[owner] = cart
	return cart, nil
}

func (f *fakeCartStore) SaveCart(_ context.Context, cart *models.Cart) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saveCalls++
	cart.Version++
	f.carts[cart.Owner] = cart
	return nil
}

func (f *fakeCartStore) GetCartEntryByOwnerAndCode(_ context.Context, owner, code string) (*models.CartEntry, error) {
	for cartOwner, cart := range f.carts {
		if entry := cart.FindEntryByCode(code); entry != nil {
			if cartOwner != owner {
				return nil, fmt.Errorf("cart entry %s: %w", code, models.ErrInvalidOwnership)
			}
			copied := *entry
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("cart entry %s: %w", code, models.ErrNotFound)
}

// fakeOrderStore implements OrderStore, capturing what PlaceOrder receives.
// When carts is set, PlaceOrder consumes the source cart like the real
// transaction does.
type fakeOrderStore struct {
	orders        map[string]*models.Order
	carts         *fakeCartStore
	placed        *models.Order
	placedCartID  int64
	placeErr      error
	codeClashes   int
	placeAttempts int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[string]*models.Order{}}
}

func (f *fakeOrderStore) PlaceOrder(_ context.Context, order *models.Order, cartID int64) error {
	f.placeAttempts++
	if f.placeErr != nil {
		return f.placeErr
	}
	if f.codeClashes > 0 {
		f.codeClashes--
		return fmt.Errorf("order %s: %w", order.Code, models.ErrDuplicateOrderCode)
	}
	order.ID = int64(len(f.orders) + 1)
	f.placed = order
	f.placedCartID = cartID
	f.orders[order.Code] = order
	if f.carts != nil {
		for owner, cart := range f.carts.carts {
			if cart.ID == cartID {
				delete(f.carts.carts, owner)
			}
		}
	}
	return nil
}

func (f *fakeOrderStore) GetOrderByCode(_ context.Context, code string) (*models.Order, error) {
	order, ok := f.orders[code]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", code, models.ErrNotFound)
	}
	return order, nil
}

func (f *fakeOrderStore) GetOrdersByOwner(_ context.Context, owner string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.Owner == owner {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListOrders(_ context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderStore) UpdateOrderStatus(_ context.Context, code string, status models.OrderStatus) (*models.Order, error) {
	order, ok := f.orders[code]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", code, models.ErrNotFound)
	}
	if !order.Status.CanTransition(status) {
		return nil, fmt.Errorf("order %s from %s to %s: %w",
			code, order.Status, status, models.ErrIllegalTransition)
	}
	order.Status = status
	return order, nil
}

// fakeSnapshotCache implements SnapshotCache in memory.
type fakeSnapshotCache struct {
	views    map[string]*models.CartView
	getErr   error
	setErr   error
	lockHeld bool
	lockErr  error
	acquired int
	released int
	deleted  []string
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{views: map[string]*models.CartView{}}
}

func (f *fakeSnapshotCache) Get(_ context.Context, owner string) (*models.CartView, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	view, ok := f.views[owner]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return view, nil
}

func (f *fakeSnapshotCache) Set(_ context.Context, owner string, view *models.CartView) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.views[owner] = view
	return nil
}

func (f *fakeSnapshotCache) Delete(_ context.Context, owner string) error {
	delete(f.views, owner)
	f.deleted = append(f.deleted, owner)
	return nil
}

func (f *fakeSnapshotCache) ExtendTTL(_ context.Context, _ string) error {
	return nil
}

func (f *fakeSnapshotCache) AcquireCheckoutLock(_ context.Context, _ string, _ time.Duration) (bool, error) {
	if f.lockErr != nil {
		return false, f.lockErr
	}
	if f.lockHeld {
		return false, nil
	}
	f.acquired++
	return true, nil
}

func (f *fakeSnapshotCache) ReleaseCheckoutLock(_ context.Context, _ string) error {
	f.released++
	return nil
}

// fakeProductGateway implements ProductGateway from a fixed catalog.
type fakeProductGateway struct {
	products map[string]models.Product
	err      error
}

func (f *fakeProductGateway) GetProduct(_ context.Context, ref string) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[ref]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", ref, models.ErrNotFound)
	}
	return &p, nil
}

func (f *fakeProductGateway) GetProducts(_ context.Context, refs []string) (map[string]models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]models.Product, len(refs))
	for _, ref := range refs {
		p, ok := f.products[ref]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", ref, models.ErrNotFound)
		}
		out[ref] = p
	}
	return out, nil
}

// fakeCustomerGateway implements CustomerGateway from fixed addresses.
type fakeCustomerGateway struct {
	addresses map[int64]models.Address
	err       error
}

func (f *fakeCustomerGateway) GetAddress(_ context.Context, id int64) (*models.Address, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.addresses[id]
	if !ok {
		return nil, fmt.Errorf("address %d: %w", id, models.ErrNotFound)
	}
	return &a, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	placed        []*models.OrderPlacedEvent
	statusChanged []*models.OrderStatusChangedEvent
	err           error
}

func (f *fakePublisher) PublishOrderPlaced(_ context.Context, event *models.OrderPlacedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.placed = append(f.placed, event)
	return nil
}

func (f *fakePublisher) PublishOrderStatusChanged(_ context.Context, event *models.OrderStatusChangedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.statusChanged = append(f.statusChanged, event)
	return nil
}
