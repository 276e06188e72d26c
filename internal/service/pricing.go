package service

import "order-core/internal/models"

// RecalculateTotals recomputes every entry's line total and returns the cart
// grand total. Pure. This is the single place the total invariant
// (cart total == sum of base price x quantity) is enforced; it must run after
// every structural or quantity change before persisting.
func RecalculateTotals(entries []models.CartEntry) ([]models.CartEntry, int64) {
	var total int64
	for i := range entries {
		entries[i].TotalPrice = entries[i].BasePrice * int64(entries[i].Quantity)
		total += entries[i].TotalPrice
	}
	return entries, total
}
