package service

import (
	"context"
	"fmt"

	"dalia-manager/internal/models"
	"dalia-manager/internal/store"
	"dalia-manager/internal/util"

	"go.uber.org/zap"
)

// PartnerService manages resellers and promoters. Partners are soft-disabled
// rather than deleted so settlement history keeps its references.
type PartnerService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewPartnerService creates a new partner service
func NewPartnerService(store *store.Store) *PartnerService {
	return &PartnerService{
		store:  store,
		logger: util.GetLogger(),
	}
}

func validPartnerStatus(status string) bool {
	return status == models.PartnerStatusActive || status == models.PartnerStatusInactive
}

// CreateReseller registers a new reseller, under her promoter when given
func (p *PartnerService) CreateReseller(ctx context.Context, reseller *models.Reseller) error {
	if reseller.PromoterID != nil {
		if _, err := p.store.GetPromoter(ctx, *reseller.PromoterID); err != nil {
			return err
		}
	}
	if err := p.store.CreateReseller(ctx, reseller); err != nil {
		return err
	}
	p.logger.Info("Reseller created", zap.String("reseller_id", reseller.ID))
	return nil
}

// GetReseller retrieves a reseller by ID
func (p *PartnerService) GetReseller(ctx context.Context, id string) (*models.Reseller, error) {
	return p.store.GetReseller(ctx, id)
}

// ListResellers retrieves resellers filtered by status and/or promoter
func (p *PartnerService) ListResellers(ctx context.Context, status, promoterID string) ([]models.Reseller, error) {
	if status != "" && !validPartnerStatus(status) {
		return nil, fmt.Errorf("%w: unknown partner status %q", models.ErrValidation, status)
	}
	return p.store.ListResellers(ctx, status, promoterID)
}

// UpdateReseller updates reseller reference data
func (p *PartnerService) UpdateReseller(ctx context.Context, reseller *models.Reseller) error {
	if reseller.PromoterID != nil {
		if _, err := p.store.GetPromoter(ctx, *reseller.PromoterID); err != nil {
			return err
		}
	}
	return p.store.UpdateReseller(ctx, reseller)
}

// SetResellerStatus flips the soft status of a reseller
func (p *PartnerService) SetResellerStatus(ctx context.Context, id, status string) error {
	if !validPartnerStatus(status) {
		return fmt.Errorf("%w: unknown partner status %q", models.ErrValidation, status)
	}
	if status == models.PartnerStatusInactive {
		open, err := p.store.ListSuitcases(ctx, models.SuitcaseStatusInUse, id)
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return fmt.Errorf("%w: reseller still has %d suitcase(s) in use", models.ErrValidation, len(open))
		}
	}
	return p.store.SetResellerStatus(ctx, id, status)
}

// CreatePromoter registers a new promoter
func (p *PartnerService) CreatePromoter(ctx context.Context, promoter *models.Promoter) error {
	if err := p.store.CreatePromoter(ctx, promoter); err != nil {
		return err
	}
	p.logger.Info("Promoter created", zap.String("promoter_id", promoter.ID))
	return nil
}

// GetPromoter retrieves a promoter by ID
func (p *PartnerService) GetPromoter(ctx context.Context, id string) (*models.Promoter, error) {
	return p.store.GetPromoter(ctx, id)
}

// ListPromoters retrieves promoters filtered by status
func (p *PartnerService) ListPromoters(ctx context.Context, status string) ([]models.Promoter, error) {
	if status != "" && !validPartnerStatus(status) {
		return nil, fmt.Errorf("%w: unknown partner status %q", models.ErrValidation, status)
	}
	return p.store.ListPromoters(ctx, status)
}

// UpdatePromoter updates promoter reference data
func (p *PartnerService) UpdatePromoter(ctx context.Context, promoter *models.Promoter) error {
	return p.store.UpdatePromoter(ctx, promoter)
}
