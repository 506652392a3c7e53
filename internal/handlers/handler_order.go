package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/khata_backend/internal/core/ports/services"
	"github.com/SscSPs/khata_backend/internal/dto"
	"github.com/SscSPs/khata_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// orderHandler handles HTTP requests related to orders.
type orderHandler struct {
	orderService portssvc.OrderSvcFacade
}

func newOrderHandler(os portssvc.OrderSvcFacade) *orderHandler {
	return &orderHandler{orderService: os}
}

// RegisterOrderRoutes registers routes related to orders.
func RegisterOrderRoutes(rg *gin.RouterGroup, orderService portssvc.OrderSvcFacade) {
	registerValidators()
	h := newOrderHandler(orderService)

	orders := rg.Group("/orders")
	{
		orders.POST("", h.createOrder)
		orders.POST("/validate", h.validateOrder)
		orders.GET("", h.listOrders)
		orders.GET("/count", h.countOrders)
		orders.GET("/:orderID", h.getOrder)
	}
}

// createOrder godoc
// @Summary Place an order
// @Description Reserves stock, records the order with its items and appends the khata entry for the shop.
// @Description Either every step is applied or none is.
// @Tags orders
// @Accept  json
// @Produce  json
// @Param   order body dto.CreateOrderRequest true "Cart"
// @Success 201 {object} dto.OrderResponse
// @Failure 400 {object} map[string]string "Invalid input, overpayment or insufficient stock"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Shop or product not found"
// @Failure 500 {object} map[string]string "Failed to create order"
// @Security BearerAuth
// @Router /orders [post]
func (h *orderHandler) createOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err, "CreateOrder request")
		return
	}

	caller, ok := middleware.GetCallerFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("shop_id", req.ShopID.String()), slog.Int("line_count", len(req.Products)))
	logger.Info("Received request to create order")

	order, err := h.orderService.CreateOrder(c.Request.Context(), caller, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create order")
		return
	}

	logger.Info("Order created successfully", slog.String("order_id", order.OrderID))
	c.JSON(http.StatusCreated, dto.ToOrderResponse(order))
}

// validateOrder godoc
// @Summary Check a cart
// @Description Runs the order checks (amounts, shop, stock) without placing the order or reserving stock.
// @Tags orders
// @Accept  json
// @Produce  json
// @Param   order body dto.CreateOrderRequest true "Cart"
// @Success 200 {object} dto.ValidateOrderResponse
// @Failure 400 {object} map[string]string "Invalid input, overpayment or insufficient stock"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Shop not found"
// @Failure 500 {object} map[string]string "Failed to validate order"
// @Security BearerAuth
// @Router /orders/validate [post]
func (h *orderHandler) validateOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err, "ValidateOrder request")
		return
	}

	caller, ok := middleware.GetCallerFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.orderService.ValidateOrder(c.Request.Context(), caller, req); err != nil {
		respondError(c, logger.With(slog.String("shop_id", req.ShopID.String())), err, "Failed to validate order")
		return
	}
	c.JSON(http.StatusOK, dto.ValidateOrderResponse{Valid: true})
}

// getOrder godoc
// @Summary Get an order
// @Description Retrieves an order with its items
// @Tags orders
// @Produce  json
// @Param   orderID path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 500 {object} map[string]string "Failed to retrieve order"
// @Security BearerAuth
// @Router /orders/{orderID} [get]
func (h *orderHandler) getOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderID := c.Param("orderID")

	caller, ok := middleware.GetCallerFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), caller, orderID)
	if err != nil {
		respondError(c, logger.With(slog.String("order_id", orderID)), err, "Failed to retrieve order")
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// listOrders godoc
// @Summary List orders
// @Description Lists the caller's orders newest first with token-based pagination
// @Tags orders
// @Produce  json
// @Param   shopId query string false "Only orders of this shop"
// @Param   limit query int false "Page size (max 100)" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListOrdersResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list orders"
// @Security BearerAuth
// @Router /orders [get]
func (h *orderHandler) listOrders(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListOrdersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err, "ListOrders query")
		return
	}

	caller, ok := middleware.GetCallerFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	resp, err := h.orderService.ListOrders(c.Request.Context(), caller, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// countOrders godoc
// @Summary Count orders
// @Description Returns how many orders the caller has placed
// @Tags orders
// @Produce  json
// @Success 200 {object} dto.CountOrdersResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to count orders"
// @Security BearerAuth
// @Router /orders/count [get]
func (h *orderHandler) countOrders(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	caller, ok := middleware.GetCallerFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	count, err := h.orderService.CountOrders(c.Request.Context(), caller)
	if err != nil {
		respondError(c, logger, err, "Failed to count orders")
		return
	}
	c.JSON(http.StatusOK, dto.CountOrdersResponse{Count: count})
}
