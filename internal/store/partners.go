package store

import (
	"context"
	"database/sql"
	"fmt"

	"dalia-manager/internal/models"

	"github.com/google/uuid"
)

// CreateReseller creates a new reseller
func (s *Store) CreateReseller(ctx context.Context, reseller *models.Reseller) error {
	if reseller.ID == "" {
		reseller.ID = uuid.New().String()
	}
	if reseller.Status == "" {
		reseller.Status = models.PartnerStatusActive
	}

	query := `
		INSERT INTO resellers (id, name, cpf_cnpj, phone, status, promoter_id, commission_rate, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		reseller.ID, reseller.Name, reseller.CpfCnpj, reseller.Phone,
		reseller.Status, reseller.PromoterID, reseller.CommissionRate, reseller.Address,
	).Scan(&reseller.CreatedAt, &reseller.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: cpf_cnpj already registered", models.ErrValidation)
		}
		return fmt.Errorf("failed to create reseller: %w", err)
	}
	return nil
}

// GetReseller retrieves a reseller by ID
func (s *Store) GetReseller(ctx context.Context, id string) (*models.Reseller, error) {
	var reseller models.Reseller
	err := s.db.GetContext(ctx, &reseller, "SELECT * FROM resellers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: reseller %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &reseller, nil
}

// ListResellers retrieves resellers, optionally filtered by status or promoter
func (s *Store) ListResellers(ctx context.Context, status, promoterID string) ([]models.Reseller, error) {
	var resellers []models.Reseller
	err := s.db.SelectContext(ctx, &resellers,
		`SELECT * FROM resellers
		 WHERE ($1 = '' OR status = $1) AND ($2 = '' OR promoter_id = $2)
		 ORDER BY name`, status, promoterID)
	return resellers, err
}

// UpdateReseller updates reseller reference data
func (s *Store) UpdateReseller(ctx context.Context, reseller *models.Reseller) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE resellers
		 SET name = $1, cpf_cnpj = $2, phone = $3, status = $4, promoter_id = $5,
		     commission_rate = $6, address = $7, updated_at = NOW()
		 WHERE id = $8`,
		reseller.Name, reseller.CpfCnpj, reseller.Phone, reseller.Status,
		reseller.PromoterID, reseller.CommissionRate, reseller.Address, reseller.ID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: reseller %s", models.ErrNotFound, reseller.ID)
	}
	return nil
}

// SetResellerStatus flips the soft status; resellers with suitcases or
// settlement history are never hard-deleted
func (s *Store) SetResellerStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE resellers SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: reseller %s", models.ErrNotFound, id)
	}
	return nil
}

// CreatePromoter creates a new promoter
func (s *Store) CreatePromoter(ctx context.Context, promoter *models.Promoter) error {
	if promoter.ID == "" {
		promoter.ID = uuid.New().String()
	}
	if promoter.Status == "" {
		promoter.Status = models.PartnerStatusActive
	}

	query := `
		INSERT INTO promoters (id, name, phone, email, status, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		promoter.ID, promoter.Name, promoter.Phone, promoter.Email,
		promoter.Status, promoter.Address,
	).Scan(&promoter.CreatedAt, &promoter.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create promoter: %w", err)
	}
	return nil
}

// GetPromoter retrieves a promoter by ID
func (s *Store) GetPromoter(ctx context.Context, id string) (*models.Promoter, error) {
	var promoter models.Promoter
	err := s.db.GetContext(ctx, &promoter, "SELECT * FROM promoters WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: promoter %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &promoter, nil
}

// ListPromoters retrieves promoters, optionally filtered by status
func (s *Store) ListPromoters(ctx context.Context, status string) ([]models.Promoter, error) {
	var promoters []models.Promoter
	err := s.db.SelectContext(ctx, &promoters,
		"SELECT * FROM promoters WHERE ($1 = '' OR status = $1) ORDER BY name", status)
	return promoters, err
}

// UpdatePromoter updates promoter reference data
func (s *Store) UpdatePromoter(ctx context.Context, promoter *models.Promoter) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE promoters
		 SET name = $1, phone = $2, email = $3, status = $4, address = $5, updated_at = NOW()
		 WHERE id = $6`,
		promoter.Name, promoter.Phone, promoter.Email, promoter.Status, promoter.Address, promoter.ID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: promoter %s", models.ErrNotFound, promoter.ID)
	}
	return nil
}

// GetOperatorByEmail retrieves a dashboard operator for login
func (s *Store) GetOperatorByEmail(ctx context.Context, email string) (*models.Operator, error) {
	var operator models.Operator
	err := s.db.GetContext(ctx, &operator, "SELECT * FROM operators WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: operator %s", models.ErrNotFound, email)
	}
	if err != nil {
		return nil, err
	}
	return &operator, nil
}
