package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem represents a sellable item with on-hand and reserved counts
type InventoryItem struct {
	ID               string          `db:"id" json:"id"`
	SKU              string          `db:"sku" json:"sku"`
	Name             string          `db:"name" json:"name"`
	Category         string          `db:"category" json:"category"`
	Quantity         int             `db:"quantity" json:"quantity"`
	QuantityReserved int             `db:"quantity_reserved" json:"quantity_reserved"`
	Price            decimal.Decimal `db:"price" json:"price"`
	UnitCost         decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	Archived         bool            `db:"archived" json:"archived"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// QuantityAvailable is the portion of on-hand stock not committed to open suitcases
func (i *InventoryItem) QuantityAvailable() int {
	return i.Quantity - i.QuantityReserved
}

// InventoryMovement is an append-only audit record of every stock mutation
type InventoryMovement struct {
	ID          string    `db:"id" json:"id"`
	InventoryID string    `db:"inventory_id" json:"inventory_id"`
	Delta       int       `db:"delta" json:"delta"`
	Reason      string    `db:"reason" json:"reason"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Movement reasons written by the ledger itself. Manual adjustments record
// the operator's own reason verbatim.
const (
	MovementReserve = "reserva"
	MovementRelease = "devolucao"
	MovementSale    = "venda"
	MovementDamaged = "danificado"
	MovementIntake  = "entrada"
)

// Suitcase is a consignment stock container assigned to one reseller (maleta)
type Suitcase struct {
	ID                 string     `db:"id" json:"id"`
	Code               string     `db:"code" json:"code"`
	SellerID           string     `db:"seller_id" json:"seller_id"`
	Status             string     `db:"status" json:"status"`
	City               string     `db:"city" json:"city"`
	Neighborhood       string     `db:"neighborhood" json:"neighborhood"`
	NextSettlementDate *time.Time `db:"next_settlement_date" json:"next_settlement_date,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Suitcase statuses
const (
	SuitcaseStatusInUse           = "em_uso"
	SuitcaseStatusReturned        = "devolvida"
	SuitcaseStatusInReplenishment = "em_reposicao"
	SuitcaseStatusLost            = "perdida"
	SuitcaseStatusInAudit         = "em_conferencia"
)

// suitcaseTransitions is the only source of truth for legal suitcase status
// changes. Anything not listed here is rejected.
var suitcaseTransitions = map[string][]string{
	SuitcaseStatusInUse: {
		SuitcaseStatusReturned,
		SuitcaseStatusInReplenishment,
		SuitcaseStatusInAudit,
		SuitcaseStatusLost,
	},
	// Any resting state can return to circulation on resupply.
	SuitcaseStatusReturned:        {SuitcaseStatusInUse},
	SuitcaseStatusInReplenishment: {SuitcaseStatusInUse},
	SuitcaseStatusInAudit:         {SuitcaseStatusInUse},
	SuitcaseStatusLost:            {SuitcaseStatusInUse},
}

// ValidSuitcaseStatus reports whether s is a known suitcase status
func ValidSuitcaseStatus(s string) bool {
	_, ok := suitcaseTransitions[s]
	return ok
}

// CanTransitionSuitcase reports whether a suitcase may move from one status to another
func CanTransitionSuitcase(from, to string) bool {
	for _, next := range suitcaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SuitcaseItem links one inventory unit into a suitcase. SettledBy is set
// when an acerto captures the row; conclusion only deletes stamped rows.
type SuitcaseItem struct {
	ID          string    `db:"id" json:"id"`
	SuitcaseID  string    `db:"suitcase_id" json:"suitcase_id"`
	InventoryID string    `db:"inventory_id" json:"inventory_id"`
	Quantity    int       `db:"quantity" json:"quantity"`
	Status      string    `db:"status" json:"status"`
	SettledBy   *string   `db:"settled_by" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Suitcase item statuses
const (
	ItemStatusInPossession = "em_posse"
	ItemStatusSold         = "vendido"
	ItemStatusReturned     = "devolvido"
	ItemStatusLost         = "perdido"
)

// itemTransitions: an item only ever leaves possession, never comes back.
var itemTransitions = map[string][]string{
	ItemStatusInPossession: {ItemStatusSold, ItemStatusReturned, ItemStatusLost},
	ItemStatusSold:         {},
	ItemStatusReturned:     {},
	ItemStatusLost:         {},
}

// ValidItemStatus reports whether s is a known suitcase item status
func ValidItemStatus(s string) bool {
	_, ok := itemTransitions[s]
	return ok
}

// CanTransitionItem reports whether a suitcase item may move from one status to another
func CanTransitionItem(from, to string) bool {
	for _, next := range itemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// GroupedItem is one presentation line collapsing suitcase item rows of the
// same inventory unit
type GroupedItem struct {
	InventoryID string `json:"inventory_id"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
}

// GroupByProduct collapses rows of the same inventory_id into one line with
// summed quantity. Pure; line order follows the first occurrence of each
// inventory_id in the input.
func GroupByProduct(items []SuitcaseItem) []GroupedItem {
	index := make(map[string]int, len(items))
	grouped := make([]GroupedItem, 0, len(items))
	for _, item := range items {
		if at, ok := index[item.InventoryID]; ok {
			grouped[at].Quantity += item.Quantity
			continue
		}
		index[item.InventoryID] = len(grouped)
		grouped = append(grouped, GroupedItem{
			InventoryID: item.InventoryID,
			Quantity:    item.Quantity,
			Status:      item.Status,
		})
	}
	return grouped
}

// Settlement is the periodic reconciliation of a suitcase (acerto)
type Settlement struct {
	ID                 string          `db:"id" json:"id"`
	SuitcaseID         string          `db:"suitcase_id" json:"suitcase_id"`
	SellerID           string          `db:"seller_id" json:"seller_id"`
	SettlementDate     time.Time       `db:"settlement_date" json:"settlement_date"`
	NextSettlementDate *time.Time      `db:"next_settlement_date" json:"next_settlement_date,omitempty"`
	TotalSales         decimal.Decimal `db:"total_sales" json:"total_sales"`
	CommissionAmount   decimal.Decimal `db:"commission_amount" json:"commission_amount"`
	Status             string          `db:"status" json:"status"`
	ReceiptURL         *string         `db:"receipt_url" json:"receipt_url,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// Settlement statuses
const (
	SettlementStatusPending   = "pendente"
	SettlementStatusConcluded = "concluido"
)

// SettlementItem is the immutable historical record of one sold unit
type SettlementItem struct {
	ID              string          `db:"id" json:"id"`
	AcertoID        string          `db:"acerto_id" json:"acerto_id"`
	SuitcaseItemID  string          `db:"suitcase_item_id" json:"suitcase_item_id"`
	InventoryID     string          `db:"inventory_id" json:"inventory_id"`
	Quantity        int             `db:"quantity" json:"quantity"`
	Price           decimal.Decimal `db:"price" json:"price"`
	SaleDate        time.Time       `db:"sale_date" json:"sale_date"`
	CustomerName    string          `db:"customer_name" json:"customer_name,omitempty"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method,omitempty"`
	CommissionValue decimal.Decimal `db:"commission_value" json:"commission_value"`
	UnitCost        decimal.Decimal `db:"unit_cost" json:"unit_cost"`
}

// Reseller carries a suitcase and sells its contents (revendedora)
type Reseller struct {
	ID             string              `db:"id" json:"id"`
	Name           string              `db:"name" json:"name"`
	CpfCnpj        string              `db:"cpf_cnpj" json:"cpf_cnpj"`
	Phone          string              `db:"phone" json:"phone"`
	Status         string              `db:"status" json:"status"`
	PromoterID     *string             `db:"promoter_id" json:"promoter_id,omitempty"`
	CommissionRate decimal.NullDecimal `db:"commission_rate" json:"commission_rate,omitempty"`
	Address        string              `db:"address" json:"address"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// Promoter supervises one or more resellers (promotora)
type Promoter struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	Status    string    `db:"status" json:"status"`
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Partner statuses (resellers and promoters use soft status, not hard delete)
const (
	PartnerStatusActive   = "Ativa"
	PartnerStatusInactive = "Inativa"
)

// Operator is a dashboard user
type Operator struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// StockingSuggestion is one advisory restock line for a reseller
type StockingSuggestion struct {
	InventoryID string    `db:"inventory_id" json:"inventory_id"`
	SKU         string    `db:"sku" json:"sku"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"`
	SoldCount   int       `db:"sold_count" json:"sold_count"`
	LastSold    time.Time `db:"last_sold" json:"last_sold"`
	Available   int       `db:"available" json:"available"`
}

// SuitcaseBlockers describes what prevents a suitcase from being deleted
type SuitcaseBlockers struct {
	ItemsInPossession int `db:"items_in_possession"`
	ItemsSold         int `db:"items_sold"`
	PendingAcertos    int `db:"pending_acertos"`
}

// Empty reports whether nothing blocks deletion
func (b SuitcaseBlockers) Empty() bool {
	return b.ItemsInPossession == 0 && b.ItemsSold == 0 && b.PendingAcertos == 0
}

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
