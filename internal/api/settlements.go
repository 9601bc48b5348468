package api

import (
	"io"
	"net/http"
	"strconv"

	"dalia-manager/internal/service"

	"github.com/gin-gonic/gin"
)

// initiateSettlement opens a pending acerto for a suitcase. The body is
// optional; an empty one settles with no scheduled next date.
func (h *Handler) initiateSettlement(c *gin.Context) {
	var req service.InitiateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		badRequest(c, err)
		return
	}

	detail, err := h.settlements.Initiate(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// listSuitcaseSettlements returns the settlement history of a suitcase
func (h *Handler) listSuitcaseSettlements(c *gin.Context) {
	settlements, err := h.settlements.ListBySuitcase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlements": settlements})
}

// getSettlement retrieves an acerto with its sold-item records
func (h *Handler) getSettlement(c *gin.Context) {
	detail, err := h.settlements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// finalizeSettlement concludes a pending acerto
func (h *Handler) finalizeSettlement(c *gin.Context) {
	var req service.FinalizeSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		badRequest(c, err)
		return
	}

	settlement, err := h.settlements.Finalize(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settlement)
}

// listResellerSettlements returns all settlements of a reseller
func (h *Handler) listResellerSettlements(c *gin.Context) {
	settlements, err := h.settlements.ListBySeller(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlements": settlements})
}

// getSuggestions returns the advisory restock list for a reseller
func (h *Handler) getSuggestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	suggestions, err := h.suggestions.Suggest(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
