package service

import (
	"testing"
	"time"

	"dalia-manager/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBuildSettlementBatch(t *testing.T) {
	suitcase := &models.Suitcase{ID: "mal-1", SellerID: "sel-1"}
	now := time.Now()

	soldItems := []models.SuitcaseItem{
		{ID: "it-1", InventoryID: "inv-1", Quantity: 1, Status: models.ItemStatusSold},
		{ID: "it-2", InventoryID: "inv-2", Quantity: 1, Status: models.ItemStatusSold},
		{ID: "it-3", InventoryID: "inv-3", Quantity: 1, Status: models.ItemStatusSold},
	}
	inventory := map[string]*models.InventoryItem{
		"inv-1": {ID: "inv-1", Price: dec("10"), UnitCost: dec("4")},
		"inv-2": {ID: "inv-2", Price: dec("20"), UnitCost: dec("8")},
		"inv-3": {ID: "inv-3", Price: dec("30"), UnitCost: dec("12")},
	}

	settlement, lines, err := buildSettlementBatch(suitcase, soldItems, inventory, dec("0.3"), now, nil)
	require.NoError(t, err)

	assert.True(t, settlement.TotalSales.Equal(dec("60")), "total sales = %s", settlement.TotalSales)
	assert.True(t, settlement.CommissionAmount.Equal(dec("18")), "commission = %s", settlement.CommissionAmount)
	assert.Equal(t, models.SettlementStatusPending, settlement.Status)
	assert.Equal(t, "mal-1", settlement.SuitcaseID)
	assert.Equal(t, "sel-1", settlement.SellerID)
	assert.Equal(t, now, settlement.SettlementDate)

	require.Len(t, lines, 3)
	assert.Equal(t, "it-1", lines[0].SuitcaseItemID)
	// Every sale row carries the settlement date.
	assert.Equal(t, now, lines[0].SaleDate)
	assert.Equal(t, now, lines[2].SaleDate)
	assert.True(t, lines[0].Price.Equal(dec("10")))
	assert.True(t, lines[0].CommissionValue.Equal(dec("3")))
	assert.True(t, lines[2].CommissionValue.Equal(dec("9")))
	assert.True(t, lines[1].UnitCost.Equal(dec("8")))
}

func TestBuildSettlementBatchQuantities(t *testing.T) {
	suitcase := &models.Suitcase{ID: "mal-1", SellerID: "sel-1"}

	soldItems := []models.SuitcaseItem{
		{ID: "it-1", InventoryID: "inv-1", Quantity: 3, Status: models.ItemStatusSold},
	}
	inventory := map[string]*models.InventoryItem{
		"inv-1": {ID: "inv-1", Price: dec("25.50")},
	}

	settlement, lines, err := buildSettlementBatch(suitcase, soldItems, inventory, dec("0.2"), time.Now(), nil)
	require.NoError(t, err)

	assert.True(t, settlement.TotalSales.Equal(dec("76.50")))
	assert.True(t, settlement.CommissionAmount.Equal(dec("15.30")))
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestBuildSettlementBatchEmpty(t *testing.T) {
	suitcase := &models.Suitcase{ID: "mal-1", SellerID: "sel-1"}

	settlement, lines, err := buildSettlementBatch(suitcase, nil, nil, dec("0.3"), time.Now(), nil)
	require.NoError(t, err)

	// A suitcase with nothing sold still settles, with zeroed figures.
	assert.True(t, settlement.TotalSales.IsZero())
	assert.True(t, settlement.CommissionAmount.IsZero())
	assert.Empty(t, lines)
}

func TestBuildSettlementBatchMissingInventory(t *testing.T) {
	suitcase := &models.Suitcase{ID: "mal-1", SellerID: "sel-1"}
	soldItems := []models.SuitcaseItem{
		{ID: "it-1", InventoryID: "inv-gone", Quantity: 1, Status: models.ItemStatusSold},
	}

	_, _, err := buildSettlementBatch(suitcase, soldItems, map[string]*models.InventoryItem{}, dec("0.3"), time.Now(), nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBuildSettlementBatchCarriesNextDate(t *testing.T) {
	suitcase := &models.Suitcase{ID: "mal-1", SellerID: "sel-1"}
	next := time.Now().AddDate(0, 1, 0)

	settlement, _, err := buildSettlementBatch(suitcase, nil, nil, dec("0.3"), time.Now(), &next)
	require.NoError(t, err)
	require.NotNil(t, settlement.NextSettlementDate)
	assert.Equal(t, next, *settlement.NextSettlementDate)
}

func TestCommissionRate(t *testing.T) {
	defaultRate := dec("0.3")

	plain := &models.Reseller{}
	assert.True(t, commissionRate(plain, defaultRate).Equal(dec("0.3")))

	custom := &models.Reseller{
		CommissionRate: decimal.NullDecimal{Decimal: dec("0.4"), Valid: true},
	}
	assert.True(t, commissionRate(custom, defaultRate).Equal(dec("0.4")))

	// A zero rate, when set explicitly, wins over the default.
	zero := &models.Reseller{
		CommissionRate: decimal.NullDecimal{Decimal: decimal.Zero, Valid: true},
	}
	assert.True(t, commissionRate(zero, defaultRate).IsZero())
}
