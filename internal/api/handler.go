package api

import (
	"errors"
	"net/http"
	"time"

	"dalia-manager/internal/models"
	"dalia-manager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	auth        *service.AuthService
	ledger      *service.InventoryLedger
	suitcases   *service.SuitcaseService
	settlements *service.SettlementService
	suggestions *service.SuggestionService
	partners    *service.PartnerService
	documents   service.DocumentGenerator
	authMW      gin.HandlerFunc
}

// NewHandler creates a new HTTP handler
func NewHandler(
	auth *service.AuthService,
	ledger *service.InventoryLedger,
	suitcases *service.SuitcaseService,
	settlements *service.SettlementService,
	suggestions *service.SuggestionService,
	partners *service.PartnerService,
	documents service.DocumentGenerator,
	authMW gin.HandlerFunc,
) *Handler {
	return &Handler{
		auth:        auth,
		ledger:      ledger,
		suitcases:   suitcases,
		settlements: settlements,
		suggestions: suggestions,
		partners:    partners,
		documents:   documents,
		authMW:      authMW,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/api/v1/login", h.login)

	v1 := router.Group("/api/v1")
	v1.Use(h.authMW)
	{
		v1.POST("/inventory", h.createInventoryItem)
		v1.GET("/inventory", h.listInventory)
		v1.GET("/inventory/:id", h.getInventoryItem)
		v1.PUT("/inventory/:id", h.updateInventoryItem)
		v1.DELETE("/inventory/:id", h.archiveInventoryItem)
		v1.GET("/inventory/:id/movements", h.listMovements)
		v1.POST("/inventory/:id/adjust", h.adjustStock)

		v1.POST("/suitcases", h.createSuitcase)
		v1.GET("/suitcases", h.listSuitcases)
		v1.GET("/suitcases/:id", h.getSuitcase)
		v1.PATCH("/suitcases/:id/status", h.changeSuitcaseStatus)
		v1.GET("/suitcases/:id/can-delete", h.canDeleteSuitcase)
		v1.DELETE("/suitcases/:id", h.deleteSuitcase)
		v1.POST("/suitcases/:id/supply-sheet", h.generateSupplySheet)

		v1.POST("/suitcases/:id/items", h.supplyItem)
		v1.GET("/suitcases/:id/items", h.listSuitcaseItems)
		v1.PATCH("/items/:id/status", h.changeItemStatus)
		v1.PATCH("/items/:id/quantity", h.changeItemQuantity)
		v1.DELETE("/items/:id", h.removeItem)

		v1.POST("/suitcases/:id/settlements", h.initiateSettlement)
		v1.GET("/suitcases/:id/settlements", h.listSuitcaseSettlements)
		v1.GET("/settlements/:id", h.getSettlement)
		v1.POST("/settlements/:id/finalize", h.finalizeSettlement)

		v1.POST("/resellers", h.createReseller)
		v1.GET("/resellers", h.listResellers)
		v1.GET("/resellers/:id", h.getReseller)
		v1.PUT("/resellers/:id", h.updateReseller)
		v1.PATCH("/resellers/:id/status", h.setResellerStatus)
		v1.GET("/resellers/:id/settlements", h.listResellerSettlements)
		v1.GET("/resellers/:id/suggestions", h.getSuggestions)

		v1.POST("/promoters", h.createPromoter)
		v1.GET("/promoters", h.listPromoters)
		v1.GET("/promoters/:id", h.getPromoter)
		v1.PUT("/promoters/:id", h.updatePromoter)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// login authenticates an operator and issues a token
func (h *Handler) login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

// respondError maps domain errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrItemElsewhere),
		errors.Is(err, models.ErrDuplicateCode),
		errors.Is(err, models.ErrSettlementAlreadyPending),
		errors.Is(err, models.ErrCascadeBlocked),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrImmutable):
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
