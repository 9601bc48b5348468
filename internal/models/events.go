package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeSuitcaseSupplied    = "SUITCASE_SUPPLIED"
	EventTypeItemReturned        = "ITEM_RETURNED"
	EventTypeItemLost            = "ITEM_LOST"
	EventTypeStockAdjusted       = "STOCK_ADJUSTED"
	EventTypeSettlementCreated   = "SETTLEMENT_CREATED"
	EventTypeSettlementConcluded = "SETTLEMENT_CONCLUDED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SuitcaseSuppliedEvent published when inventory is placed into a suitcase
type SuitcaseSuppliedEvent struct {
	BaseEvent
	SuitcaseID  string `json:"suitcase_id"`
	InventoryID string `json:"inventory_id"`
	ItemID      string `json:"item_id"`
	Quantity    int    `json:"quantity"`
}

// ItemReturnedEvent published when an item leaves a suitcase back to stock
type ItemReturnedEvent struct {
	BaseEvent
	SuitcaseID  string `json:"suitcase_id"`
	InventoryID string `json:"inventory_id"`
	Quantity    int    `json:"quantity"`
	Damaged     bool   `json:"damaged"`
}

// StockAdjustedEvent published on manual inventory corrections
type StockAdjustedEvent struct {
	BaseEvent
	InventoryID string `json:"inventory_id"`
	Delta       int    `json:"delta"`
	Reason      string `json:"reason"`
}

// SettlementCreatedEvent published when an acerto enters the pending state
type SettlementCreatedEvent struct {
	BaseEvent
	AcertoID   string          `json:"acerto_id"`
	SuitcaseID string          `json:"suitcase_id"`
	SellerID   string          `json:"seller_id"`
	TotalSales decimal.Decimal `json:"total_sales"`
	SoldItems  int             `json:"sold_items"`
}

// SettlementConcludedEvent published when an acerto is finalized; the receipt
// worker reacts to it when no receipt URL was attached at finalization
type SettlementConcludedEvent struct {
	BaseEvent
	AcertoID   string  `json:"acerto_id"`
	SuitcaseID string  `json:"suitcase_id"`
	SellerID   string  `json:"seller_id"`
	ReceiptURL *string `json:"receipt_url,omitempty"`
}
