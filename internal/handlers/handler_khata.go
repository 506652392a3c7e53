package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/khata_backend/internal/core/ports/services"
	"github.com/SscSPs/khata_backend/internal/dto"
	"github.com/SscSPs/khata_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// khataHandler handles HTTP requests related to shop ledgers.
type khataHandler struct {
	khataService portssvc.KhataSvcFacade
}

func newKhataHandler(ks portssvc.KhataSvcFacade) *khataHandler {
	return &khataHandler{khataService: ks}
}

// RegisterKhataRoutes registers routes related to the khata ledger.
func RegisterKhataRoutes(rg *gin.RouterGroup, khataService portssvc.KhataSvcFacade) {
	registerValidators()
	h := newKhataHandler(khataService)

	khata := rg.Group("/khata")
	{
		khata.GET("", h.listShopBalances)
		khata.POST("", h.adjustBalance)
		khata.GET("/:shopID", h.getShopLedger)
	}
}

// listShopBalances godoc
// @Summary List shop balances
// @Description Returns the outstanding balance of every shop with ledger entries
// @Tags khata
// @Produce  json
// @Success 200 {array} dto.ShopBalanceResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list shop balances"
// @Security BearerAuth
// @Router /khata [get]
func (h *khataHandler) listShopBalances(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caller, ok := middleware.GetCallerFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	balances, err := h.khataService.ListShopBalances(c.Request.Context(), caller)
	if err != nil {
		respondError(c, logger, err, "Failed to list shop balances")
		return
	}
	c.JSON(http.StatusOK, dto.ToShopBalanceResponses(balances))
}

// getShopLedger godoc
// @Summary Get a shop's khata
// @Description Returns every ledger entry of the shop and its current balance
// @Tags khata
// @Produce  json
// @Param   shopID path string true "Shop ID"
// @Success 200 {object} dto.ShopLedgerResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Shop not found"
// @Failure 500 {object} map[string]string "Failed to retrieve khata"
// @Security BearerAuth
// @Router /khata/{shopID} [get]
func (h *khataHandler) getShopLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	shopID := c.Param("shopID")

	caller, ok := middleware.GetCallerFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ledger, err := h.khataService.GetShopLedger(c.Request.Context(), caller, shopID)
	if err != nil {
		respondError(c, logger.With(slog.String("shop_id", shopID)), err, "Failed to retrieve khata")
		return
	}
	c.JSON(http.StatusOK, dto.ToShopLedgerResponse(ledger))
}

// adjustBalance godoc
// @Summary Adjust a shop's balance
// @Description Appends a manual khata entry, e.g. a payment received. Positive amounts reduce what the shop owes.
// @Tags khata
// @Accept  json
// @Produce  json
// @Param   adjustment body dto.AdjustBalanceRequest true "Adjustment"
// @Success 201 {object} dto.KhataEntryResponse
// @Failure 400 {object} map[string]string "Invalid input or balance limit exceeded"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Shop not found"
// @Failure 500 {object} map[string]string "Failed to adjust balance"
// @Security BearerAuth
// @Router /khata [post]
func (h *khataHandler) adjustBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err, "AdjustBalance request")
		return
	}

	caller, ok := middleware.GetCallerFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("shop_id", req.ShopID.String()), slog.String("amount", req.Amount.String()))
	logger.Info("Received request to adjust khata balance")

	entry, err := h.khataService.AdjustBalance(c.Request.Context(), caller, req)
	if err != nil {
		respondError(c, logger, err, "Failed to adjust balance")
		return
	}

	logger.Info("Khata balance adjusted", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, dto.ToKhataEntryResponse(*entry))
}
