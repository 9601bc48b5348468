package service

import (
	"context"
	"fmt"
	"time"

	"dalia-manager/internal/broker"
	"dalia-manager/internal/models"
	"dalia-manager/internal/redisclient"
	"dalia-manager/internal/store"
	"dalia-manager/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettlementService runs the periodic reconciliation of a suitcase: sold
// items are consumed from stock, the commission is computed and the acerto
// record is written, all in one transactional batch
type SettlementService struct {
	store          *store.Store
	redis          *redisclient.Client
	ledger         *InventoryLedger
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger

	defaultCommissionRate decimal.Decimal
	lockTTL               time.Duration
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	store *store.Store,
	redis *redisclient.Client,
	ledger *InventoryLedger,
	eventPublisher *broker.EventPublisher,
	defaultCommissionRate float64,
	lockTTL time.Duration,
) *SettlementService {
	return &SettlementService{
		store:                 store,
		redis:                 redis,
		ledger:                ledger,
		eventPublisher:        eventPublisher,
		logger:                util.GetLogger(),
		defaultCommissionRate: decimal.NewFromFloat(defaultCommissionRate),
		lockTTL:               lockTTL,
	}
}

// InitiateSettlementRequest opens an acerto for a suitcase; the settlement
// date defaults to now
type InitiateSettlementRequest struct {
	SettlementDate     *time.Time `json:"settlement_date,omitempty"`
	NextSettlementDate *time.Time `json:"next_settlement_date,omitempty"`
}

// FinalizeSettlementRequest concludes a pending acerto
type FinalizeSettlementRequest struct {
	ReceiptURL *string `json:"receipt_url,omitempty"`
}

// SettlementSummary counts how the suitcase contents were partitioned when
// the acerto was initiated
type SettlementSummary struct {
	Sold         int `json:"sold"`
	Returned     int `json:"returned"`
	Lost         int `json:"lost"`
	InPossession int `json:"in_possession"`
}

// SettlementDetail bundles an acerto with its sold-item records. The summary
// is only present on initiation; settled rows leave the suitcase afterwards.
type SettlementDetail struct {
	Settlement models.Settlement       `json:"settlement"`
	Items      []models.SettlementItem `json:"items"`
	Summary    *SettlementSummary      `json:"summary,omitempty"`
}

// commissionRate picks the reseller's own rate when set, the house default
// otherwise
func commissionRate(seller *models.Reseller, defaultRate decimal.Decimal) decimal.Decimal {
	if seller.CommissionRate.Valid {
		return seller.CommissionRate.Decimal
	}
	return defaultRate
}

// buildSettlementBatch turns the sold rows of a suitcase into the acerto
// record and its sold-item lines. Pure; prices and costs are frozen from the
// inventory snapshot passed in.
func buildSettlementBatch(
	suitcase *models.Suitcase,
	soldItems []models.SuitcaseItem,
	inventory map[string]*models.InventoryItem,
	rate decimal.Decimal,
	settlementDate time.Time,
	nextDate *time.Time,
) (*models.Settlement, []models.SettlementItem, error) {
	totalSales := decimal.Zero
	totalCommission := decimal.Zero
	lines := make([]models.SettlementItem, 0, len(soldItems))

	for _, item := range soldItems {
		inv, ok := inventory[item.InventoryID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: inventory item %s", models.ErrNotFound, item.InventoryID)
		}

		lineTotal := inv.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lineCommission := lineTotal.Mul(rate)

		lines = append(lines, models.SettlementItem{
			SuitcaseItemID:  item.ID,
			InventoryID:     item.InventoryID,
			Quantity:        item.Quantity,
			Price:           inv.Price,
			SaleDate:        settlementDate,
			CommissionValue: lineCommission,
			UnitCost:        inv.UnitCost,
		})

		totalSales = totalSales.Add(lineTotal)
		totalCommission = totalCommission.Add(lineCommission)
	}

	settlement := &models.Settlement{
		SuitcaseID:         suitcase.ID,
		SellerID:           suitcase.SellerID,
		SettlementDate:     settlementDate,
		NextSettlementDate: nextDate,
		TotalSales:         totalSales,
		CommissionAmount:   totalCommission,
		Status:             models.SettlementStatusPending,
	}
	return settlement, lines, nil
}

// Initiate opens a pending acerto for a suitcase. Sold items are consumed
// from stock and frozen into sold-item records in one transaction; a second
// pending acerto for the same suitcase is rejected.
func (s *SettlementService) Initiate(ctx context.Context, suitcaseID string, req *InitiateSettlementRequest) (*SettlementDetail, error) {
	ctx, span := util.StartSpan(ctx, "SettlementService.Initiate")
	defer span.End()

	locked, err := s.redis.AcquireSettlementLock(ctx, suitcaseID, s.lockTTL)
	if err != nil {
		s.logger.Warn("Settlement lock unavailable, relying on database guard",
			zap.String("suitcase_id", suitcaseID),
			zap.Error(err))
	} else if !locked {
		util.SettlementsRejectedTotal.WithLabelValues("locked").Inc()
		return nil, fmt.Errorf("%w: settlement already in progress", models.ErrSettlementAlreadyPending)
	} else {
		defer func() {
			if err := s.redis.ReleaseSettlementLock(context.Background(), suitcaseID); err != nil {
				s.logger.Warn("Failed to release settlement lock", zap.Error(err))
			}
		}()
	}

	suitcase, err := s.store.GetSuitcase(ctx, suitcaseID)
	if err != nil {
		return nil, err
	}

	pending, err := s.store.GetPendingSettlement(ctx, suitcaseID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		util.SettlementsRejectedTotal.WithLabelValues("already_pending").Inc()
		return nil, fmt.Errorf("%w: settlement %s", models.ErrSettlementAlreadyPending, pending.ID)
	}

	seller, err := s.store.GetReseller(ctx, suitcase.SellerID)
	if err != nil {
		return nil, err
	}

	allItems, err := s.store.ListSuitcaseItems(ctx, suitcaseID)
	if err != nil {
		return nil, err
	}

	// Returned and lost items already had their ledger side effects applied
	// by the item tracker; here they are only counted for the summary.
	var summary SettlementSummary
	soldItems := make([]models.SuitcaseItem, 0)
	for _, item := range allItems {
		switch item.Status {
		case models.ItemStatusSold:
			summary.Sold++
			soldItems = append(soldItems, item)
		case models.ItemStatusReturned:
			summary.Returned++
		case models.ItemStatusLost:
			summary.Lost++
		case models.ItemStatusInPossession:
			summary.InPossession++
		}
	}

	inventory := make(map[string]*models.InventoryItem, len(soldItems))
	for _, item := range soldItems {
		if _, ok := inventory[item.InventoryID]; ok {
			continue
		}
		inv, err := s.store.GetInventoryItem(ctx, item.InventoryID)
		if err != nil {
			return nil, err
		}
		inventory[item.InventoryID] = inv
	}

	// One clock read per initiation; the date default, the latency baseline
	// and the event timestamp all share it.
	now := time.Now()
	settlementDate := now
	if req.SettlementDate != nil {
		settlementDate = *req.SettlementDate
	}
	settlement, lines, err := buildSettlementBatch(
		suitcase, soldItems, inventory,
		commissionRate(seller, s.defaultCommissionRate),
		settlementDate, req.NextSettlementDate,
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateSettlementTx(ctx, settlement, lines); err != nil {
		util.SettlementsRejectedTotal.WithLabelValues("batch_failed").Inc()
		return nil, err
	}
	util.SettlementBatchLatency.Observe(time.Since(now).Seconds())
	util.SettlementsInitiatedTotal.Inc()

	for _, line := range lines {
		s.ledger.mirrorConsume(ctx, line.InventoryID, line.Quantity)
	}

	event := &models.SettlementCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSettlementCreated,
			Timestamp: now,
		},
		AcertoID:   settlement.ID,
		SuitcaseID: suitcaseID,
		SellerID:   suitcase.SellerID,
		TotalSales: settlement.TotalSales,
		SoldItems:  len(lines),
	}
	if err := s.eventPublisher.PublishSettlementCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish SettlementCreated event", zap.Error(err))
	}

	s.logger.Info("Settlement initiated",
		zap.String("acerto_id", settlement.ID),
		zap.String("suitcase_id", suitcaseID),
		zap.Int("sold_items", len(lines)),
		zap.String("total_sales", settlement.TotalSales.String()))

	return &SettlementDetail{Settlement: *settlement, Items: lines, Summary: &summary}, nil
}

// Finalize concludes a pending acerto. Financial figures are frozen; only the
// receipt URL may still be attached. Settled item rows leave the suitcase and
// the receipt worker is notified.
func (s *SettlementService) Finalize(ctx context.Context, acertoID string, req *FinalizeSettlementRequest) (*models.Settlement, error) {
	ctx, span := util.StartSpan(ctx, "SettlementService.Finalize")
	defer span.End()

	settlement, err := s.store.ConcludeSettlementTx(ctx, acertoID, req.ReceiptURL)
	if err != nil {
		return nil, err
	}

	util.SettlementsConcludedTotal.Inc()

	event := &models.SettlementConcludedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSettlementConcluded,
			Timestamp: time.Now(),
		},
		AcertoID:   settlement.ID,
		SuitcaseID: settlement.SuitcaseID,
		SellerID:   settlement.SellerID,
		ReceiptURL: settlement.ReceiptURL,
	}
	if err := s.eventPublisher.PublishSettlementConcluded(ctx, event); err != nil {
		s.logger.Error("Failed to publish SettlementConcluded event", zap.Error(err))
	}

	s.logger.Info("Settlement concluded",
		zap.String("acerto_id", acertoID),
		zap.String("suitcase_id", settlement.SuitcaseID))
	return settlement, nil
}

// Get retrieves an acerto with its sold-item records
func (s *SettlementService) Get(ctx context.Context, acertoID string) (*SettlementDetail, error) {
	settlement, err := s.store.GetSettlement(ctx, acertoID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListSettlementItems(ctx, acertoID)
	if err != nil {
		return nil, err
	}
	return &SettlementDetail{Settlement: *settlement, Items: items}, nil
}

// ListBySuitcase retrieves the settlement history of a suitcase
func (s *SettlementService) ListBySuitcase(ctx context.Context, suitcaseID string) ([]models.Settlement, error) {
	if _, err := s.store.GetSuitcase(ctx, suitcaseID); err != nil {
		return nil, err
	}
	return s.store.ListSettlementsBySuitcase(ctx, suitcaseID)
}

// ListBySeller retrieves all settlements of a reseller
func (s *SettlementService) ListBySeller(ctx context.Context, sellerID string) ([]models.Settlement, error) {
	if _, err := s.store.GetReseller(ctx, sellerID); err != nil {
		return nil, err
	}
	return s.store.ListSettlementsBySeller(ctx, sellerID)
}
