package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"order-core/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// GetCartByOwner retrieves the owner's cart with its entries. Returns
// models.ErrNotFound when the owner has no cart.
func (s *Store) GetCartByOwner(ctx context.Context, owner string) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, "SELECT * FROM carts WHERE owner = $1", owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cart for owner %s: %w", owner, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadCartEntries(ctx, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCartByCode retrieves a cart by its opaque code.
func (s *Store) GetCartByCode(ctx context.Context, code string) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, "SELECT * FROM carts WHERE code = $1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cart %s: %w", code, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadCartEntries(ctx, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateCart returns the owner's cart, creating an empty one lazily on
// first access.
func (s *Store) GetOrCreateCart(ctx context.Context, owner string) (*models.Cart, error) {
	cart, err := s.GetCartByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	cart = &models.Cart{
		Code:    uuid.New().String(),
		Owner:   owner,
		Entries: []models.CartEntry{},
	}

	query := `
		INSERT INTO carts (code, owner, total_price, version)
		VALUES ($1, $2, 0, 1)
		ON CONFLICT (owner) DO NOTHING
		RETURNING id, version, created_at, updated_at`

	err = s.db.QueryRowxContext(ctx, query, cart.Code, cart.Owner).
		StructScan(cart)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost the insert race to a concurrent first access.
		return s.GetCartByOwner(ctx, owner)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

// SaveCart persists the cart aggregate in a single transaction: the cart row
// is updated behind an optimistic version check, entries are upserted by code
// and entries no longer present in the aggregate are pruned. Returns
// models.ErrConflict when a concurrent writer got there first.
func (s *Store) SaveCart(ctx context.Context, cart *models.Cart) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE carts
		SET total_price = $1, address_ref = $2, payment_method = $3,
		    version = version + 1, updated_at = NOW()
		WHERE id = $4 AND version = $5`,
		cart.TotalPrice, cart.AddressRef, cart.PaymentMethod, cart.ID, cart.Version)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("cart %s version %d: %w", cart.Code, cart.Version, models.ErrConflict)
	}
	cart.Version++

	codes := make([]string, 0, len(cart.Entries))
	for i := range cart.Entries {
		e := &cart.Entries[i]
		e.CartID = cart.ID
		codes = append(codes, e.Code)

		err := tx.QueryRowxContext(ctx, `
			INSERT INTO cart_entries (cart_id, code, owner, product_ref, quantity, base_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (code) DO UPDATE
			SET quantity = EXCLUDED.quantity,
			    base_price = EXCLUDED.base_price,
			    total_price = EXCLUDED.total_price
			RETURNING id, created_at`,
			e.CartID, e.Code, e.Owner, e.ProductRef, e.Quantity, e.BasePrice, e.TotalPrice).
			Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert cart entry %s: %w", e.Code, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM cart_entries WHERE cart_id = $1 AND code <> ALL($2)",
		cart.ID, pq.Array(codes))
	if err != nil {
		return fmt.Errorf("failed to prune cart entries: %w", err)
	}

	return tx.Commit()
}

// GetCartEntryByOwnerAndCode retrieves an entry by its code, scoped to the
// owner for direct ownership-checked lookups.
func (s *Store) GetCartEntryByOwnerAndCode(ctx context.Context, owner, code string) (*models.CartEntry, error) {
	var entry models.CartEntry
	err := s.db.GetContext(ctx, &entry,
		"SELECT * FROM cart_entries WHERE owner = $1 AND code = $2", owner, code)
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish a foreign entry from a missing one.
		var exists bool
		if err := s.db.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM cart_entries WHERE code = $1)", code); err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("cart entry %s: %w", code, models.ErrInvalidOwnership)
		}
		return nil, fmt.Errorf("cart entry %s: %w", code, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteCart deletes a cart; entries cascade.
func (s *Store) DeleteCart(ctx context.Context, cartID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM carts WHERE id = $1", cartID)
	return err
}

// DeleteCartByCode deletes a cart by code (operator tooling).
func (s *Store) DeleteCartByCode(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM carts WHERE code = $1", code)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("cart %s: %w", code, models.ErrNotFound)
	}
	return nil
}

// DeleteCartEntry removes a single entry from a cart by code and recomputes
// the cart total in the same transaction (operator tooling).
func (s *Store) DeleteCartEntry(ctx context.Context, cartCode, entryCode string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var cartID int64
	err = tx.GetContext(ctx, &cartID, "SELECT id FROM carts WHERE code = $1", cartCode)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("cart %s: %w", cartCode, models.ErrNotFound)
	}
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM cart_entries WHERE cart_id = $1 AND code = $2", cartID, entryCode)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("cart entry %s: %w", entryCode, models.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE carts
		SET total_price = COALESCE((SELECT SUM(total_price) FROM cart_entries WHERE cart_id = $1), 0),
		    version = version + 1, updated_at = NOW()
		WHERE id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("failed to recompute cart total: %w", err)
	}

	return tx.Commit()
}

func (s *Store) loadCartEntries(ctx context.Context, cart *models.Cart) error {
	cart.Entries = []models.CartEntry{}
	err := s.db.SelectContext(ctx, &cart.Entries,
		"SELECT * FROM cart_entries WHERE cart_id = $1 ORDER BY id", cart.ID)
	if err != nil {
		return fmt.Errorf("failed to load cart entries: %w", err)
	}
	return nil
}
