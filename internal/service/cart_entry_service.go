package service

import (
	"context"
	"fmt"

	"order-core/internal/models"
	"order-core/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartEntryManager mutates line items on a cart aggregate, snapshotting
// prices from the product service. Persistence stays with the caller so a
// whole mutation lands in one SaveCart.
type CartEntryManager struct {
	cartStore CartStore
	products  ProductGateway
	logger    *zap.Logger
}

// NewCartEntryManager creates a cart entry manager.
func NewCartEntryManager(cartStore CartStore, products ProductGateway) *CartEntryManager {
	return &CartEntryManager{
		cartStore: cartStore,
		products:  products,
		logger:    util.GetLogger(),
	}
}

// AddToCart adds quantity of productRef to the cart. Quantities accumulate on
// an existing entry for the same product, with the price re-snapshotted;
// otherwise a new entry is created.
func (m *CartEntryManager) AddToCart(ctx context.Context, cart *models.Cart, productRef string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	product, err := m.products.GetProduct(ctx, productRef)
	if err != nil {
		return err
	}

	if entry := cart.FindEntryByProduct(productRef); entry != nil {
		m.logger.Info("Accumulating cart entry",
			zap.String("cart_code", cart.Code),
			zap.String("entry_code", entry.Code),
			zap.Int("old_quantity", entry.Quantity),
			zap.Int("added", quantity))
		entry.Quantity += quantity
		entry.BasePrice = product.Price
		return nil
	}

	cart.Entries = append(cart.Entries, models.CartEntry{
		CartID:     cart.ID,
		Code:       uuid.New().String(),
		Owner:      cart.Owner,
		ProductRef: product.Ref,
		Quantity:   quantity,
		BasePrice:  product.Price,
	})
	m.logger.Info("Added cart entry",
		zap.String("cart_code", cart.Code),
		zap.String("product_ref", productRef),
		zap.Int("quantity", quantity))
	return nil
}

// UpdateQuantity loads the entry by owner and code, re-snapshots its price
// and sets the new quantity, returning the owning cart aggregate with the
// change applied. Fails with models.ErrInvalidOwnership when the entry
// belongs to someone else.
func (m *CartEntryManager) UpdateQuantity(ctx context.Context, owner, entryCode string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	stored, err := m.cartStore.GetCartEntryByOwnerAndCode(ctx, owner, entryCode)
	if err != nil {
		return nil, err
	}

	product, err := m.products.GetProduct(ctx, stored.ProductRef)
	if err != nil {
		return nil, err
	}

	cart, err := m.cartStore.GetCartByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	entry := cart.FindEntryByCode(entryCode)
	if entry == nil {
		return nil, fmt.Errorf("cart entry %s: %w", entryCode, models.ErrNotFound)
	}
	entry.Quantity = quantity
	entry.BasePrice = product.Price

	m.logger.Info("Updated cart entry quantity",
		zap.String("cart_code", cart.Code),
		zap.String("entry_code", entryCode),
		zap.Int("quantity", quantity))
	return cart, nil
}

// RemoveFromCart removes the entry with the given code from the cart
// aggregate. Removing the last entry leaves an empty cart, not no cart.
// Fails with models.ErrInvalidOwnership when the entry belongs to someone
// else's cart.
func (m *CartEntryManager) RemoveFromCart(ctx context.Context, cart *models.Cart, entryCode string) error {
	for i := range cart.Entries {
		if cart.Entries[i].Code == entryCode {
			cart.Entries = append(cart.Entries[:i], cart.Entries[i+1:]...)
			m.logger.Info("Removed cart entry",
				zap.String("cart_code", cart.Code),
				zap.String("entry_code", entryCode))
			return nil
		}
	}

	// Not in this cart. The owner-scoped lookup distinguishes an entry that
	// belongs to another cart from one that does not exist at all.
	if _, err := m.cartStore.GetCartEntryByOwnerAndCode(ctx, cart.Owner, entryCode); err != nil {
		return err
	}
	return fmt.Errorf("cart entry %s: %w", entryCode, models.ErrNotFound)
}
