package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/khata_backend/internal/core/ports/services"
	"github.com/SscSPs/khata_backend/internal/dto"
	"github.com/SscSPs/khata_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles HTTP requests related to reports
type reportingHandler struct {
	reportingService portssvc.ReportingService
	now              func() time.Time
}

// newReportingHandler creates a new reportingHandler
func newReportingHandler(rs portssvc.ReportingService) *reportingHandler {
	return &reportingHandler{
		reportingService: rs,
		now:              time.Now,
	}
}

// RegisterReportingRoutes registers routes related to reports
func RegisterReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingService) {
	h := newReportingHandler(reportingService)

	reportingGroup := rg.Group("/reports")
	{
		reportingGroup.GET("/orders/summary", h.getOrderSummary)
	}
}

// getOrderSummary godoc
// @Summary Order summary
// @Description Sums the caller's orders over a period: sales, amount paid, cost, margin and outstanding
// @Tags reports
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)" default(first day of current month)
// @Param to query string false "End date, inclusive (YYYY-MM-DD)" default(current date)
// @Success 200 {object} dto.OrderSummaryResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to generate report"
// @Security BearerAuth
// @Router /reports/orders/summary [get]
func (h *reportingHandler) getOrderSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.OrderSummaryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Invalid order summary query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return
	}

	caller, ok := middleware.GetCallerFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	now := h.now().UTC()
	// Default from date is first day of current month
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if params.From != "" {
		from, _ = time.Parse(time.DateOnly, params.From)
	}
	if params.To != "" {
		to, _ = time.Parse(time.DateOnly, params.To)
	}

	if from.After(to) {
		logger.Warn("Invalid date range", slog.String("from", from.Format(time.DateOnly)), slog.String("to", to.Format(time.DateOnly)))
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before or equal to to"})
		return
	}

	logger = logger.With(
		slog.String("from", from.Format(time.DateOnly)),
		slog.String("to", to.Format(time.DateOnly)),
	)
	logger.Info("Received request to generate order summary")

	// The service range is half-open, so the last day is included by moving to the next midnight.
	summary, err := h.reportingService.OrderSummary(c.Request.Context(), caller, from, to.AddDate(0, 0, 1))
	if err != nil {
		respondError(c, logger, err, "Failed to generate order summary")
		return
	}

	logger.Info("Order summary generated successfully", slog.Int64("order_count", summary.OrderCount))
	c.JSON(http.StatusOK, dto.ToOrderSummaryResponse(summary))
}
