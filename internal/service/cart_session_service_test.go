package service

import (
	"context"
	"errors"
	"testing"

	"order-core/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCartSession(
	snapshots *fakeSnapshotCache,
	carts *fakeCartStore,
	products *fakeProductGateway,
	customers *fakeCustomerGateway,
) *CartSessionService {
	entries := NewCartEntryManager(carts, products)
	return NewCartSessionService(snapshots, carts, entries, products, customers)
}

func testCatalog() *fakeProductGateway {
	return &fakeProductGateway{products: map[string]models.Product{
		"P1": {Ref: "P1", Name: "Keyboard", Price: 1000},
		"P2": {Ref: "P2", Name: "Mouse", Price: 400},
	}}
}

func TestGetCart_CreatesEmptyCartOnFirstRead(t *testing.T) {
	carts := newFakeCartStore()
	svc := newTestCartSession(newFakeSnapshotCache(), carts, testCatalog(), &fakeCustomerGateway{})

	view, err := svc.GetCart(context.Background(), "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", view.Owner)
	assert.Empty(t, view.Entries)
	assert.Equal(t, int64(0), view.TotalPrice)

	again, err := svc.GetCart(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, view.Code, again.Code)
}

func TestGetCart_ServesCachedSnapshot(t *testing.T) {
	snapshots := newFakeSnapshotCache()
	snapshots.views["alice@example.com"] = &models.CartView{
		Code:       "cached-cart",
		Owner:      "alice@example.com",
		TotalPrice: 1234,
	}
	// No cart exists in the store; a store read would create a fresh one.
	svc := newTestCartSession(snapshots, newFakeCartStore(), testCatalog(), &fakeCustomerGateway{})

	view, err := svc.GetCart(context.Background(), "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "cached-cart", view.Code)
	assert.Equal(t, int64(1234), view.TotalPrice)
}

func TestGetCart_CacheFailureFallsBackToStore(t *testing.T) {
	snapshots := newFakeSnapshotCache()
	snapshots.getErr = errors.New("redis down")
	svc := newTestCartSession(snapshots, newFakeCartStore(), testCatalog(), &fakeCustomerGateway{})

	view, err := svc.GetCart(context.Background(), "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", view.Owner)
}

func TestAddItem_AccumulatesQuantityOnSameProduct(t *testing.T) {
	snapshots := newFakeSnapshotCache()
	svc := newTestCartSession(snapshots, newFakeCartStore(), testCatalog(), &fakeCustomerGateway{})
	ctx := context.Background()

	view, err := svc.AddItem(ctx, "alice@example.com", "P1", 2)
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, int64(2000), view.TotalPrice)

	view, err = svc.AddItem(ctx, "alice@example.com", "P1", 3)
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, 5, view.Entries[0].Quantity)
	assert.Equal(t, int64(5000), view.TotalPrice)

	view, err = svc.AddItem(ctx, "alice@example.com", "P2", 1)
	require.NoError(t, err)
	require.Len(t, view.Entries, 2)
	assert.Equal(t, int64(5400), view.TotalPrice)

	// Every mutation rebuilds the snapshot wholesale.
	assert.Equal(t, view.TotalPrice, snapshots.views["alice@example.com"].TotalPrice)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	svc := newTestCartSession(newFakeSnapshotCache(), newFakeCartStore(), testCatalog(), &fakeCustomerGateway{})

	_, err := svc.AddItem(context.Background(), "alice@example.com", "NOPE", 1)

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	svc := newTestCartSession(newFakeSnapshotCache(), newFakeCartStore(), testCatalog(), &fakeCustomerGateway{})

	_, err := svc.AddItem(context.Background(), "alice@example.com", "P1", 0)

	assert.Error(t, err)
}

func TestUpdateQuantity_ReplacesQuantityAndResnapshotsPrice(t *testing.T) {
	carts := newFakeCartStore()
	catalog := testCatalog()
	svc := newTestCartSession(newFakeSnapshotCache(), carts, catalog, &fakeCustomerGateway{})
	ctx := context.Background()

	view, err := svc.AddItem(ctx, "alice@example.com", "P1", 2)
	require.NoError(t, err)
	entryCode := view.Entries[0].Code

	catalog.products["P1"] = models.Product{Ref: "P1", Name: "Keyboard", Price: 1100}

	view, err = svc.UpdateQuantity(ctx, "alice@example.com", entryCode, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Entries[0].Quantity)
	assert.Equal(t, int64(1100), view.Entries[0].BasePrice)
	assert.Equal(t, int64(4400), view.TotalPrice)
}

func TestUpdateQuantity_RejectsForeignEntry(t *testing.T) {
	carts := newFakeCartStore()
	svc := newTestCartSession(newFakeSnapshotCache(), carts, testCatalog(), &fakeCustomerGateway{})
	ctx := context.Background()

	view, err := svc.AddItem(ctx, "alice@example.com", "P1", 2)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, "mallory@example.com", view.Entries[0].Code, 99)

	assert.ErrorIs(t, err, models.ErrInvalidOwnership)
}

func TestRemoveItem(t *testing.T) {
	svc := newTestCartSession(newFakeSnapshotCache(), newFakeCartStore(), testCatalog(), &fakeCustomerGateway{})
	ctx := context.Background()

	view, err := svc.AddItem(ctx, "alice@example.com", "P1", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "alice@example.com", "P2", 1)
	require.NoError(t, err)

	view, err = svc.RemoveItem(ctx, "alice@example.com", view.Entries[0].Code)
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "P2", view.Entries[0].Product.Ref)
	assert.Equal(t, int64(400), view.TotalPrice)
}

func TestRemoveItem_RejectsForeignEntry(t *testing.T) {
	carts := newFakeCartStore()
	svc := newTestCartSession(newFakeSnapshotCache(), carts, testCatalog(), &fakeCustomerGateway{})
	ctx := context.Background()

	view, err := svc.AddItem(ctx, "alice@example.com", "P1", 2)
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, "mallory@example.com", view.Entries[0].Code)

	assert.ErrorIs(t, err, models.ErrInvalidOwnership)

	// Neither cart changed: alice keeps her entry, mallory's stays empty.
	aliceCart, err := carts.GetCartByOwner(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, aliceCart.Entries, 1)
	malloryCart, err := carts.GetCartByOwner(ctx, "mallory@example.com")
	require.NoError(t, err)
	assert.Empty(t, malloryCart.Entries)
}

func TestRemoveItem_UnknownEntry(t *testing.T) {
	svc := newTestCartSession(newFakeSnapshotCache(), newFakeCartStore(), testCatalog(), &fakeCustomerGateway{})

	_, err := svc.RemoveItem(context.Background(), "alice@example.com", "nope")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateAddress_ValidatesAgainstCustomerService(t *testing.T) {
	customers := &fakeCustomerGateway{addresses: map[int64]models.Address{
		7: {ID: 7, City: "Berlin"},
	}}
	svc := newTestCartSession(newFakeSnapshotCache(), newFakeCartStore(), testCatalog(), customers)
	ctx := context.Background()

	view, err := svc.UpdateAddress(ctx, "alice@example.com", 7)
	require.NoError(t, err)
	require.NotNil(t, view.AddressRef)
	assert.Equal(t, int64(7), *view.AddressRef)

	_, err = svc.UpdateAddress(ctx, "alice@example.com", 8)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdatePaymentMethod(t *testing.T) {
	svc := newTestCartSession(newFakeSnapshotCache(), newFakeCartStore(), testCatalog(), &fakeCustomerGateway{})

	view, err := svc.UpdatePaymentMethod(context.Background(), "alice@example.com", models.PaymentMethodWireTransfer)

	require.NoError(t, err)
	require.NotNil(t, view.PaymentMethod)
	assert.Equal(t, models.PaymentMethodWireTransfer, *view.PaymentMethod)
}

func TestMutation_PropagatesWriteConflict(t *testing.T) {
	carts := newFakeCartStore()
	carts.saveErr = models.ErrConflict
	svc := newTestCartSession(newFakeSnapshotCache(), carts, testCatalog(), &fakeCustomerGateway{})

	_, err := svc.AddItem(context.Background(), "alice@example.com", "P1", 1)

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestMutation_SnapshotWriteFailureIsNotFatal(t *testing.T) {
	snapshots := newFakeSnapshotCache()
	snapshots.setErr = errors.New("redis down")
	svc := newTestCartSession(snapshots, newFakeCartStore(), testCatalog(), &fakeCustomerGateway{})

	view, err := svc.AddItem(context.Background(), "alice@example.com", "P1", 1)

	require.NoError(t, err)
	assert.Equal(t, int64(1000), view.TotalPrice)
}

func TestClear_DropsSnapshotButKeepsDurableCart(t *testing.T) {
	snapshots := newFakeSnapshotCache()
	carts := newFakeCartStore()
	svc := newTestCartSession(snapshots, carts, testCatalog(), &fakeCustomerGateway{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "alice@example.com", "P1", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "alice@example.com"))

	assert.NotContains(t, snapshots.views, "alice@example.com")
	_, err = carts.GetCartByOwner(ctx, "alice@example.com")
	assert.NoError(t, err)
}
