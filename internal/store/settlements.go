package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dalia-manager/internal/models"

	"github.com/google/uuid"
)

// GetPendingSettlement returns the open acerto for a suitcase, or nil when
// none exists
func (s *Store) GetPendingSettlement(ctx context.Context, suitcaseID string) (*models.Settlement, error) {
	var settlement models.Settlement
	err := s.db.GetContext(ctx, &settlement,
		"SELECT * FROM acertos_maleta WHERE suitcase_id = $1 AND status = $2",
		suitcaseID, models.SettlementStatusPending)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// GetSettlement retrieves an acerto by ID
func (s *Store) GetSettlement(ctx context.Context, id string) (*models.Settlement, error) {
	var settlement models.Settlement
	err := s.db.GetContext(ctx, &settlement, "SELECT * FROM acertos_maleta WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: settlement %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// ListSettlementsBySuitcase retrieves the settlement history of a suitcase
func (s *Store) ListSettlementsBySuitcase(ctx context.Context, suitcaseID string) ([]models.Settlement, error) {
	var settlements []models.Settlement
	err := s.db.SelectContext(ctx, &settlements,
		"SELECT * FROM acertos_maleta WHERE suitcase_id = $1 ORDER BY settlement_date DESC", suitcaseID)
	return settlements, err
}

// ListSettlementsBySeller retrieves all settlements of a reseller
func (s *Store) ListSettlementsBySeller(ctx context.Context, sellerID string) ([]models.Settlement, error) {
	var settlements []models.Settlement
	err := s.db.SelectContext(ctx, &settlements,
		"SELECT * FROM acertos_maleta WHERE seller_id = $1 ORDER BY settlement_date DESC", sellerID)
	return settlements, err
}

// ListSettlementItems retrieves the sold-item records of an acerto
func (s *Store) ListSettlementItems(ctx context.Context, acertoID string) ([]models.SettlementItem, error) {
	var items []models.SettlementItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM acerto_itens_vendidos WHERE acerto_id = $1 ORDER BY sale_date, id", acertoID)
	return items, err
}

// CreateSettlementTx writes the pending acerto, its sold-item records and the
// matching stock consumption as one batch, stamping the captured suitcase item
// rows with the acerto ID. Any failure rolls back the whole attempt; the
// partial unique index on pending acertos rejects a concurrent initiation for
// the same suitcase.
func (s *Store) CreateSettlementTx(ctx context.Context, settlement *models.Settlement, items []models.SettlementItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	settlement.Status = models.SettlementStatusPending

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO acertos_maleta
			(id, suitcase_id, seller_id, settlement_date, next_settlement_date, total_sales, commission_amount, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		settlement.ID, settlement.SuitcaseID, settlement.SellerID,
		settlement.SettlementDate, settlement.NextSettlementDate,
		settlement.TotalSales, settlement.CommissionAmount, settlement.Status,
	).Scan(&settlement.CreatedAt, &settlement.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: suitcase %s", models.ErrSettlementAlreadyPending, settlement.SuitcaseID)
		}
		return fmt.Errorf("failed to create settlement: %w", err)
	}

	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.AcertoID = settlement.ID

		if err := consumeStockTx(ctx, tx, item.InventoryID, item.Quantity, models.MovementSale); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE suitcase_items SET settled_by = $1
			 WHERE id = $2 AND status = $3 AND settled_by IS NULL`,
			settlement.ID, item.SuitcaseItemID, models.ItemStatusSold)
		if err != nil {
			return fmt.Errorf("failed to stamp settled item: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: suitcase item %s is not an unsettled sale", models.ErrValidation, item.SuitcaseItemID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO acerto_itens_vendidos
				(id, acerto_id, suitcase_item_id, inventory_id, quantity, price, sale_date,
				 customer_name, payment_method, commission_value, unit_cost)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			item.ID, item.AcertoID, item.SuitcaseItemID, item.InventoryID, item.Quantity,
			item.Price, item.SaleDate, item.CustomerName, item.PaymentMethod,
			item.CommissionValue, item.UnitCost)
		if err != nil {
			return fmt.Errorf("failed to create settlement item: %w", err)
		}
	}

	// Returned and lost rows are ledger-complete; stamp the ones present now
	// so this acerto's conclusion sweeps them and no later ones.
	if _, err := tx.ExecContext(ctx,
		`UPDATE suitcase_items SET settled_by = $1
		 WHERE suitcase_id = $2 AND settled_by IS NULL AND status IN ($3, $4)`,
		settlement.ID, settlement.SuitcaseID,
		models.ItemStatusReturned, models.ItemStatusLost); err != nil {
		return fmt.Errorf("failed to stamp settled items: %w", err)
	}

	return tx.Commit()
}

// ConcludeSettlementTx moves a pending acerto to concluido, stamps the
// suitcase's next settlement date and clears the settled item rows. Financial
// fields never change here.
func (s *Store) ConcludeSettlementTx(ctx context.Context, acertoID string, receiptURL *string) (*models.Settlement, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var settlement models.Settlement
	err = tx.GetContext(ctx, &settlement,
		"SELECT * FROM acertos_maleta WHERE id = $1 FOR UPDATE", acertoID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: settlement %s", models.ErrNotFound, acertoID)
	}
	if err != nil {
		return nil, err
	}

	if settlement.Status == models.SettlementStatusConcluded {
		return nil, fmt.Errorf("%w: settlement %s already concluded", models.ErrImmutable, acertoID)
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE acertos_maleta
		 SET status = $1, receipt_url = COALESCE($2, receipt_url), updated_at = $3
		 WHERE id = $4`,
		models.SettlementStatusConcluded, receiptURL, now, acertoID); err != nil {
		return nil, fmt.Errorf("failed to conclude settlement: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE suitcases SET next_settlement_date = $1, updated_at = $2 WHERE id = $3",
		settlement.NextSettlementDate, now, settlement.SuitcaseID); err != nil {
		return nil, fmt.Errorf("failed to stamp next settlement date: %w", err)
	}

	// Only the rows this acerto stamped leave the suitcase; an item sold after
	// initiation keeps its row and reservation for the next acerto. History
	// lives in acerto_itens_vendidos and the movement trail.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM suitcase_items WHERE settled_by = $1", acertoID); err != nil {
		return nil, fmt.Errorf("failed to clear settled items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	settlement.Status = models.SettlementStatusConcluded
	if receiptURL != nil {
		settlement.ReceiptURL = receiptURL
	}
	settlement.UpdatedAt = now
	return &settlement, nil
}

// AttachReceiptURL stores a receipt on an acerto after generation; the only
// mutation a concluded settlement accepts
func (s *Store) AttachReceiptURL(ctx context.Context, acertoID, url string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE acertos_maleta SET receipt_url = $1, updated_at = NOW() WHERE id = $2",
		url, acertoID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: settlement %s", models.ErrNotFound, acertoID)
	}
	return nil
}

// TopSoldItems aggregates a reseller's sold-item history since the given date,
// keeping only items with available stock, ranked by frequency then recency
func (s *Store) TopSoldItems(ctx context.Context, sellerID string, since time.Time, limit int) ([]models.StockingSuggestion, error) {
	var suggestions []models.StockingSuggestion
	err := s.db.SelectContext(ctx, &suggestions, `
		SELECT i.id AS inventory_id, i.sku, i.name, i.category,
		       COUNT(*) AS sold_count,
		       MAX(av.sale_date) AS last_sold,
		       i.quantity - i.quantity_reserved AS available
		FROM acerto_itens_vendidos av
		JOIN acertos_maleta a ON a.id = av.acerto_id
		JOIN inventory i ON i.id = av.inventory_id
		WHERE a.seller_id = $1 AND av.sale_date >= $2
		  AND NOT i.archived
		GROUP BY i.id, i.sku, i.name, i.category, i.quantity, i.quantity_reserved
		HAVING i.quantity - i.quantity_reserved > 0
		ORDER BY sold_count DESC, last_sold DESC
		LIMIT $3`,
		sellerID, since, limit)
	return suggestions, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
