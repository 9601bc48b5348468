package api

import (
	"fmt"
	"net/http"

	"dalia-manager/internal/models"
	"dalia-manager/internal/service"

	"github.com/gin-gonic/gin"
)

// createSuitcase registers a new suitcase for a reseller
func (h *Handler) createSuitcase(c *gin.Context) {
	var req service.CreateSuitcaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	suitcase, err := h.suitcases.CreateSuitcase(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, suitcase)
}

// listSuitcases lists suitcases, with optional ?status= and ?seller_id=
func (h *Handler) listSuitcases(c *gin.Context) {
	suitcases, err := h.suitcases.ListSuitcases(c.Request.Context(), c.Query("status"), c.Query("seller_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suitcases": suitcases})
}

// getSuitcase retrieves a suitcase with its contents grouped per product
func (h *Handler) getSuitcase(c *gin.Context) {
	suitcase, err := h.suitcases.GetSuitcase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	grouped, err := h.suitcases.ListItemsGrouped(c.Request.Context(), suitcase.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"suitcase": suitcase,
		"items":    grouped,
	})
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// changeSuitcaseStatus moves a suitcase along its lifecycle
func (h *Handler) changeSuitcaseStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	suitcase, err := h.suitcases.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suitcase)
}

// canDeleteSuitcase previews whether deletion would be blocked, and why
func (h *Handler) canDeleteSuitcase(c *gin.Context) {
	blockers, reasons, err := h.suitcases.CanDelete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if reasons == nil {
		reasons = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"can_delete": blockers.Empty(),
		"reasons":    reasons,
	})
}

// deleteSuitcase removes a suitcase and its dependent records
func (h *Handler) deleteSuitcase(c *gin.Context) {
	if err := h.suitcases.DeleteSuitcase(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// generateSupplySheet renders the packing list PDF of a suitcase
func (h *Handler) generateSupplySheet(c *gin.Context) {
	suitcase, err := h.suitcases.GetSuitcase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	grouped, err := h.suitcases.ListItemsGrouped(c.Request.Context(), suitcase.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	url, err := h.documents.GenerateSupplySheet(c.Request.Context(), suitcase, grouped)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// supplyItem places inventory into a suitcase
func (h *Handler) supplyItem(c *gin.Context) {
	var req service.SupplyItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.suitcases.SupplyItem(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// listSuitcaseItems lists the items of a suitcase; ?grouped=true collapses
// rows of the same product
func (h *Handler) listSuitcaseItems(c *gin.Context) {
	if c.Query("grouped") == "true" {
		grouped, err := h.suitcases.ListItemsGrouped(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": grouped})
		return
	}

	items, err := h.suitcases.ListItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// changeItemStatus marks an item sold, returned or lost
func (h *Handler) changeItemStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var (
		item *models.SuitcaseItem
		err  error
	)
	switch req.Status {
	case models.ItemStatusSold:
		item, err = h.suitcases.MarkItemSold(c.Request.Context(), c.Param("id"))
	case models.ItemStatusReturned:
		item, err = h.suitcases.ReturnItem(c.Request.Context(), c.Param("id"))
	case models.ItemStatusLost:
		item, err = h.suitcases.MarkItemLost(c.Request.Context(), c.Param("id"))
	default:
		err = fmt.Errorf("%w: unknown item status %q", models.ErrValidation, req.Status)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type changeQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// changeItemQuantity changes the tracked quantity of an in-possession item
func (h *Handler) changeItemQuantity(c *gin.Context) {
	var req changeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.suitcases.UpdateItemQuantity(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// removeItem deletes an item supplied by mistake
func (h *Handler) removeItem(c *gin.Context) {
	if err := h.suitcases.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
