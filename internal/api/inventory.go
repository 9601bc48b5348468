package api

import (
	"fmt"
	"net/http"

	"dalia-manager/internal/models"
	"dalia-manager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// createInventoryItem registers a new item on intake
func (h *Handler) createInventoryItem(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		respondError(c, fmt.Errorf("%w: invalid price", models.ErrValidation))
		return
	}
	unitCost := decimal.Zero
	if req.UnitCost != "" {
		unitCost, err = decimal.NewFromString(req.UnitCost)
		if err != nil || unitCost.IsNegative() {
			respondError(c, fmt.Errorf("%w: invalid unit cost", models.ErrValidation))
			return
		}
	}

	item := &models.InventoryItem{
		SKU:      req.SKU,
		Name:     req.Name,
		Category: req.Category,
		Quantity: req.Quantity,
		Price:    price,
		UnitCost: unitCost,
	}
	if err := h.ledger.CreateItem(c.Request.Context(), item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// listInventory lists items, with optional ?search= and ?include_archived=
func (h *Handler) listInventory(c *gin.Context) {
	includeArchived := c.Query("include_archived") == "true"
	items, err := h.ledger.ListItems(c.Request.Context(), c.Query("search"), includeArchived)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// getInventoryItem retrieves one item
func (h *Handler) getInventoryItem(c *gin.Context) {
	item, err := h.ledger.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type updateItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	Price    string `json:"price" binding:"required"`
	UnitCost string `json:"unit_cost"`
}

// updateInventoryItem updates catalog fields; quantities only move through
// the ledger endpoints
func (h *Handler) updateInventoryItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.ledger.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		respondError(c, fmt.Errorf("%w: invalid price", models.ErrValidation))
		return
	}
	item.Name = req.Name
	item.Category = req.Category
	item.Price = price
	if req.UnitCost != "" {
		unitCost, err := decimal.NewFromString(req.UnitCost)
		if err != nil || unitCost.IsNegative() {
			respondError(c, fmt.Errorf("%w: invalid unit cost", models.ErrValidation))
			return
		}
		item.UnitCost = unitCost
	}

	if err := h.ledger.UpdateItem(c.Request.Context(), item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// archiveInventoryItem soft-archives an item
func (h *Handler) archiveInventoryItem(c *gin.Context) {
	if err := h.ledger.ArchiveItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listMovements returns the audit trail of an item
func (h *Handler) listMovements(c *gin.Context) {
	movements, err := h.ledger.ListMovements(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements})
}

type adjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// adjustStock applies a signed manual correction
func (h *Handler) adjustStock(c *gin.Context) {
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.ledger.AdjustStock(c.Request.Context(), c.Param("id"), req.Delta, req.Reason); err != nil {
		respondError(c, err)
		return
	}

	item, err := h.ledger.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
