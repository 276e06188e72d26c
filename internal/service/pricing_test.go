package service

import (
	"testing"

	"order-core/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRecalculateTotals(t *testing.T) {
	entries := []models.CartEntry{
		{ProductRef: "P1", Quantity: 2, BasePrice: 1000},
		{ProductRef: "P2", Quantity: 1, BasePrice: 400},
	}

	entries, total := RecalculateTotals(entries)

	assert.Equal(t, int64(2000), entries[0].TotalPrice)
	assert.Equal(t, int64(400), entries[1].TotalPrice)
	assert.Equal(t, int64(2400), total)
}

func TestRecalculateTotals_Empty(t *testing.T) {
	entries, total := RecalculateTotals(nil)

	assert.Empty(t, entries)
	assert.Equal(t, int64(0), total)
}

func TestRecalculateTotals_OverwritesStaleLineTotals(t *testing.T) {
	entries := []models.CartEntry{
		{ProductRef: "P1", Quantity: 3, BasePrice: 500, TotalPrice: 999},
	}

	entries, total := RecalculateTotals(entries)

	assert.Equal(t, int64(1500), entries[0].TotalPrice)
	assert.Equal(t, int64(1500), total)
}
