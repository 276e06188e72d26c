package service

import (
	"context"
	"errors"

	"order-core/internal/cache"
	"order-core/internal/models"
	"order-core/internal/util"

	"go.uber.org/zap"
)

// CartSessionService is the cache-aside coordinator for cart access. Reads
// hit the snapshot cache first and fall back to the durable store; every
// mutation writes through the store and then rebuilds the cached snapshot
// wholesale. The durable store is ground truth; the cache is only a read
// accelerator and its failures are logged, never fatal.
type CartSessionService struct {
	cache     SnapshotCache
	cartStore CartStore
	entries   *CartEntryManager
	products  ProductGateway
	customers CustomerGateway
	logger    *zap.Logger
}

// NewCartSessionService creates the cart session facade.
func NewCartSessionService(
	snapshotCache SnapshotCache,
	cartStore CartStore,
	entries *CartEntryManager,
	products ProductGateway,
	customers CustomerGateway,
) *CartSessionService {
	return &CartSessionService{
		cache:     snapshotCache,
		cartStore: cartStore,
		entries:   entries,
		products:  products,
		customers: customers,
		logger:    util.GetLogger(),
	}
}

// GetCart returns the owner's cart view. Cache hit short-circuits; on miss
// the durable cart is loaded (created empty if absent), totals recomputed and
// the snapshot populated.
func (s *CartSessionService) GetCart(ctx context.Context, owner string) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartSession.GetCart")
	defer span.End()

	view, err := s.cache.Get(ctx, owner)
	if err == nil {
		util.CartCacheHitsTotal.Inc()
		return view, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Cart cache read failed, falling back to store",
			zap.String("owner", owner), zap.Error(err))
	}
	util.CartCacheMissesTotal.Inc()

	cart, err := s.cartStore.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.Entries, cart.TotalPrice = RecalculateTotals(cart.Entries)

	view, err = s.assembleView(ctx, cart)
	if err != nil {
		return nil, err
	}
	s.refreshSnapshot(ctx, owner, view)
	return view, nil
}

// AddItem adds quantity of productRef to the owner's durable cart and
// refreshes the snapshot.
func (s *CartSessionService) AddItem(ctx context.Context, owner, productRef string, quantity int) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartSession.AddItem")
	defer span.End()
	util.CartMutationsTotal.WithLabelValues("add").Inc()

	cart, err := s.cartStore.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	if err := s.entries.AddToCart(ctx, cart, productRef, quantity); err != nil {
		return nil, err
	}

	return s.persistAndRefresh(ctx, cart)
}

// RemoveItem removes the entry with entryCode from the owner's cart.
func (s *CartSessionService) RemoveItem(ctx context.Context, owner, entryCode string) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartSession.RemoveItem")
	defer span.End()
	util.CartMutationsTotal.WithLabelValues("remove").Inc()

	cart, err := s.cartStore.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	if err := s.entries.RemoveFromCart(ctx, cart, entryCode); err != nil {
		return nil, err
	}

	return s.persistAndRefresh(ctx, cart)
}

// UpdateQuantity sets a new quantity on the entry with entryCode,
// re-snapshotting its price.
func (s *CartSessionService) UpdateQuantity(ctx context.Context, owner, entryCode string, quantity int) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartSession.UpdateQuantity")
	defer span.End()
	util.CartMutationsTotal.WithLabelValues("update_quantity").Inc()

	cart, err := s.entries.UpdateQuantity(ctx, owner, entryCode, quantity)
	if err != nil {
		return nil, err
	}

	return s.persistAndRefresh(ctx, cart)
}

// UpdateAddress validates the address reference against the customer service
// and stores it on the cart.
func (s *CartSessionService) UpdateAddress(ctx context.Context, owner string, addressRef int64) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartSession.UpdateAddress")
	defer span.End()
	util.CartMutationsTotal.WithLabelValues("update_address").Inc()

	address, err := s.customers.GetAddress(ctx, addressRef)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartStore.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	cart.AddressRef = &address.ID
	return s.persistAndRefresh(ctx, cart)
}

// UpdatePaymentMethod stores the payment method on the cart.
func (s *CartSessionService) UpdatePaymentMethod(ctx context.Context, owner string, method models.PaymentMethod) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartSession.UpdatePaymentMethod")
	defer span.End()
	util.CartMutationsTotal.WithLabelValues("update_payment").Inc()

	cart, err := s.cartStore.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	cart.PaymentMethod = &method
	return s.persistAndRefresh(ctx, cart)
}

// ExtendSessionTTL resets the snapshot's expiry so read traffic keeps an
// active cart warm without reloading it.
func (s *CartSessionService) ExtendSessionTTL(ctx context.Context, owner string) {
	if err := s.cache.ExtendTTL(ctx, owner); err != nil {
		s.logger.Debug("Failed to extend cart session TTL",
			zap.String("owner", owner), zap.Error(err))
	}
}

// Clear drops the cached snapshot only; the durable cart survives. Used for
// logout-style cleanup, distinct from checkout's full removal.
func (s *CartSessionService) Clear(ctx context.Context, owner string) error {
	return s.cache.Delete(ctx, owner)
}

// persistAndRefresh recomputes totals, writes the cart through the durable
// store and rebuilds the cached snapshot.
func (s *CartSessionService) persistAndRefresh(ctx context.Context, cart *models.Cart) (*models.CartView, error) {
	cart.Entries, cart.TotalPrice = RecalculateTotals(cart.Entries)

	if err := s.cartStore.SaveCart(ctx, cart); err != nil {
		if errors.Is(err, models.ErrConflict) {
			util.CartConflictsTotal.Inc()
		}
		return nil, err
	}

	view, err := s.assembleView(ctx, cart)
	if err != nil {
		return nil, err
	}
	s.refreshSnapshot(ctx, cart.Owner, view)
	return view, nil
}

// assembleView batch-resolves product display data for all entries, then
// translates the cart shape purely.
func (s *CartSessionService) assembleView(ctx context.Context, cart *models.Cart) (*models.CartView, error) {
	refs := make([]string, 0, len(cart.Entries))
	for _, e := range cart.Entries {
		refs = append(refs, e.ProductRef)
	}

	products, err := s.products.GetProducts(ctx, refs)
	if err != nil {
		return nil, err
	}
	return models.BuildCartView(cart, products), nil
}

func (s *CartSessionService) refreshSnapshot(ctx context.Context, owner string, view *models.CartView) {
	if err := s.cache.Set(ctx, owner, view); err != nil {
		s.logger.Warn("Failed to refresh cart snapshot",
			zap.String("owner", owner), zap.Error(err))
	}
}
