package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"order-core/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PlaceOrder persists the order snapshot and consumes the source cart as one
// transaction: order row, entry rows and payment rows are inserted and the
// cart is deleted (entries cascade). A crash mid-checkout leaves either the
// full order with its cart gone, or nothing.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order, cartID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (code, owner, total_price, address_ref, payment_method, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		order.Code, order.Owner, order.TotalPrice, order.AddressRef,
		order.PaymentMethod, order.Status).StructScan(order)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "orders_code_key" {
			return fmt.Errorf("order %s: %w", order.Code, models.ErrDuplicateOrderCode)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Entries {
		e := &order.Entries[i]
		e.OrderID = order.ID
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO order_entries (order_id, code, product_ref, quantity, base_price, total_price, canceled_amount, shipped_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at`,
			e.OrderID, e.Code, e.ProductRef, e.Quantity, e.BasePrice,
			e.TotalPrice, e.CanceledAmount, e.ShippedAmount).
			Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order entry: %w", err)
		}
	}

	for i := range order.Payments {
		p := &order.Payments[i]
		p.OrderID = order.ID
		if err := insertPayment(ctx, tx, p); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM carts WHERE id = $1", cartID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	return tx.Commit()
}

// GetOrderByCode retrieves an order with its entries and payments.
func (s *Store) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE code = $1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", code, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadOrderChildren(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByOwner retrieves an owner's orders, most recent first.
func (s *Store) GetOrdersByOwner(ctx context.Context, owner string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE owner = $1 ORDER BY created_at DESC", owner)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if err := s.loadOrderChildren(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// ListOrders retrieves all orders, most recent first.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, "SELECT * FROM orders ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if err := s.loadOrderChildren(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateOrderStatus moves an order to a new status, enforcing the transition
// table. Returns models.ErrIllegalTransition for moves outside it.
func (s *Store) UpdateOrderStatus(ctx context.Context, code string, status models.OrderStatus) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.GetContext(ctx, &order, "SELECT * FROM orders WHERE code = $1 FOR UPDATE", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", code, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransition(status) {
		return nil, fmt.Errorf("order %s: %s -> %s: %w",
			code, order.Status, status, models.ErrIllegalTransition)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.Status = status
	if err := s.loadOrderChildren(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SetOrderStatus overwrites an order's status without consulting the
// transition table. Reserved for the payment path, which is the one guarded
// transition (READY -> PAID) and checks it before calling.
func (s *Store) SetOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}

// CreatePaymentTransaction appends a payment record for an order.
func (s *Store) CreatePaymentTransaction(ctx context.Context, p *models.PaymentTransaction) error {
	return insertPayment(ctx, s.db, p)
}

// GetPaymentByOrderCode retrieves the latest payment transaction for an order.
func (s *Store) GetPaymentByOrderCode(ctx context.Context, orderCode string) (*models.PaymentTransaction, error) {
	var payment models.PaymentTransaction
	err := s.db.GetContext(ctx, &payment, `
		SELECT p.* FROM payment_transactions p
		JOIN orders o ON o.id = p.order_id
		WHERE o.code = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT 1`, orderCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment for order %s: %w", orderCode, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePaymentStatus updates a payment transaction's status and provider id.
func (s *Store) UpdatePaymentStatus(ctx context.Context, paymentID int64, status models.PaymentStatus, providerTxID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE payment_transactions SET status = $1, provider_tx_id = $2, updated_at = NOW() WHERE id = $3",
		status, providerTxID, paymentID)
	return err
}

func insertPayment(ctx context.Context, q sqlx.ExtContext, p *models.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (order_id, method, provider_tx_id, amount, status, bank_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := sqlx.GetContext(ctx, q, p, query,
		p.OrderID, p.Method, p.ProviderTxID, p.Amount, p.Status, p.BankName)
	if err != nil {
		return fmt.Errorf("failed to insert payment transaction: %w", err)
	}
	return nil
}

func (s *Store) loadOrderChildren(ctx context.Context, order *models.Order) error {
	order.Entries = []models.OrderEntry{}
	err := s.db.SelectContext(ctx, &order.Entries,
		"SELECT * FROM order_entries WHERE order_id = $1 ORDER BY id", order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order entries: %w", err)
	}

	order.Payments = []models.PaymentTransaction{}
	err = s.db.SelectContext(ctx, &order.Payments,
		"SELECT * FROM payment_transactions WHERE order_id = $1 ORDER BY id", order.ID)
	if err != nil {
		return fmt.Errorf("failed to load payment transactions: %w", err)
	}
	return nil
}
