package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuitcaseTransitions(t *testing.T) {
	// Out of circulation.
	assert.True(t, CanTransitionSuitcase(SuitcaseStatusInUse, SuitcaseStatusReturned))
	assert.True(t, CanTransitionSuitcase(SuitcaseStatusInUse, SuitcaseStatusInReplenishment))
	assert.True(t, CanTransitionSuitcase(SuitcaseStatusInUse, SuitcaseStatusInAudit))
	assert.True(t, CanTransitionSuitcase(SuitcaseStatusInUse, SuitcaseStatusLost))

	// Back into circulation.
	assert.True(t, CanTransitionSuitcase(SuitcaseStatusReturned, SuitcaseStatusInUse))
	assert.True(t, CanTransitionSuitcase(SuitcaseStatusLost, SuitcaseStatusInUse))

	// Resting states never jump between themselves.
	assert.False(t, CanTransitionSuitcase(SuitcaseStatusReturned, SuitcaseStatusLost))
	assert.False(t, CanTransitionSuitcase(SuitcaseStatusInAudit, SuitcaseStatusReturned))
	assert.False(t, CanTransitionSuitcase(SuitcaseStatusInUse, SuitcaseStatusInUse))
	assert.False(t, CanTransitionSuitcase(SuitcaseStatusInUse, "garbage"))
}

func TestValidSuitcaseStatus(t *testing.T) {
	assert.True(t, ValidSuitcaseStatus(SuitcaseStatusInUse))
	assert.True(t, ValidSuitcaseStatus(SuitcaseStatusInAudit))
	assert.False(t, ValidSuitcaseStatus("EM_USO"))
	assert.False(t, ValidSuitcaseStatus(""))
}

func TestItemTransitions(t *testing.T) {
	assert.True(t, CanTransitionItem(ItemStatusInPossession, ItemStatusSold))
	assert.True(t, CanTransitionItem(ItemStatusInPossession, ItemStatusReturned))
	assert.True(t, CanTransitionItem(ItemStatusInPossession, ItemStatusLost))

	// Terminal states stay terminal.
	assert.False(t, CanTransitionItem(ItemStatusSold, ItemStatusInPossession))
	assert.False(t, CanTransitionItem(ItemStatusReturned, ItemStatusSold))
	assert.False(t, CanTransitionItem(ItemStatusLost, ItemStatusReturned))
}

func TestGroupByProduct(t *testing.T) {
	items := []SuitcaseItem{
		{ID: "a", InventoryID: "ring", Quantity: 1, Status: ItemStatusInPossession},
		{ID: "b", InventoryID: "necklace", Quantity: 2, Status: ItemStatusInPossession},
		{ID: "c", InventoryID: "ring", Quantity: 3, Status: ItemStatusInPossession},
	}

	grouped := GroupByProduct(items)

	assert.Equal(t, []GroupedItem{
		{InventoryID: "ring", Quantity: 4, Status: ItemStatusInPossession},
		{InventoryID: "necklace", Quantity: 2, Status: ItemStatusInPossession},
	}, grouped)
}

func TestGroupByProductEmpty(t *testing.T) {
	assert.Empty(t, GroupByProduct(nil))
	assert.Empty(t, GroupByProduct([]SuitcaseItem{}))
}

func TestQuantityAvailable(t *testing.T) {
	item := InventoryItem{Quantity: 10, QuantityReserved: 3}
	assert.Equal(t, 7, item.QuantityAvailable())

	item = InventoryItem{Quantity: 5, QuantityReserved: 5}
	assert.Equal(t, 0, item.QuantityAvailable())
}

func TestSuitcaseBlockersEmpty(t *testing.T) {
	assert.True(t, SuitcaseBlockers{}.Empty())
	assert.False(t, SuitcaseBlockers{ItemsInPossession: 1}.Empty())
	assert.False(t, SuitcaseBlockers{ItemsSold: 1}.Empty())
	assert.False(t, SuitcaseBlockers{PendingAcertos: 1}.Empty())
}
