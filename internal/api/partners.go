package api

import (
	"fmt"
	"net/http"

	"dalia-manager/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type resellerRequest struct {
	Name           string  `json:"name" binding:"required"`
	CpfCnpj        string  `json:"cpf_cnpj" binding:"required"`
	Phone          string  `json:"phone"`
	PromoterID     *string `json:"promoter_id,omitempty"`
	CommissionRate *string `json:"commission_rate,omitempty"`
	Address        string  `json:"address"`
}

func (r *resellerRequest) apply(reseller *models.Reseller) error {
	reseller.Name = r.Name
	reseller.CpfCnpj = r.CpfCnpj
	reseller.Phone = r.Phone
	reseller.PromoterID = r.PromoterID
	reseller.Address = r.Address

	if r.CommissionRate == nil {
		reseller.CommissionRate = decimal.NullDecimal{}
		return nil
	}
	rate, err := decimal.NewFromString(*r.CommissionRate)
	if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: commission rate must be between 0 and 1", models.ErrValidation)
	}
	reseller.CommissionRate = decimal.NullDecimal{Decimal: rate, Valid: true}
	return nil
}

// createReseller registers a new reseller
func (h *Handler) createReseller(c *gin.Context) {
	var req resellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var reseller models.Reseller
	if err := req.apply(&reseller); err != nil {
		respondError(c, err)
		return
	}
	if err := h.partners.CreateReseller(c.Request.Context(), &reseller); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reseller)
}

// listResellers lists resellers, with optional ?status= and ?promoter_id=
func (h *Handler) listResellers(c *gin.Context) {
	resellers, err := h.partners.ListResellers(c.Request.Context(), c.Query("status"), c.Query("promoter_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resellers": resellers})
}

// getReseller retrieves a reseller by ID
func (h *Handler) getReseller(c *gin.Context) {
	reseller, err := h.partners.GetReseller(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reseller)
}

// updateReseller updates reseller reference data
func (h *Handler) updateReseller(c *gin.Context) {
	var req resellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reseller, err := h.partners.GetReseller(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := req.apply(reseller); err != nil {
		respondError(c, err)
		return
	}
	if err := h.partners.UpdateReseller(c.Request.Context(), reseller); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reseller)
}

// setResellerStatus flips the soft status of a reseller
func (h *Handler) setResellerStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.partners.SetResellerStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		respondError(c, err)
		return
	}

	reseller, err := h.partners.GetReseller(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reseller)
}

type promoterRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// createPromoter registers a new promoter
func (h *Handler) createPromoter(c *gin.Context) {
	var req promoterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	promoter := models.Promoter{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	}
	if err := h.partners.CreatePromoter(c.Request.Context(), &promoter); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, promoter)
}

// listPromoters lists promoters, with optional ?status=
func (h *Handler) listPromoters(c *gin.Context) {
	promoters, err := h.partners.ListPromoters(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"promoters": promoters})
}

// getPromoter retrieves a promoter by ID
func (h *Handler) getPromoter(c *gin.Context) {
	promoter, err := h.partners.GetPromoter(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, promoter)
}

// updatePromoter updates promoter reference data
func (h *Handler) updatePromoter(c *gin.Context) {
	var req promoterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	promoter, err := h.partners.GetPromoter(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	promoter.Name = req.Name
	promoter.Phone = req.Phone
	promoter.Email = req.Email
	promoter.Address = req.Address

	if err := h.partners.UpdatePromoter(c.Request.Context(), promoter); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, promoter)
}
