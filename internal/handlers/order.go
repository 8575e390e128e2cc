// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/curated-market/internal/i18n"
	"github.com/javajoker/curated-market/internal/middleware"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/services"
	"github.com/javajoker/curated-market/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// POST /products/:id/orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "id", "product ID")
	if !ok {
		return
	}

	var req services.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), caller, productID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyOrderPlaced, gin.H{"order": order})
}

// PUT /orders/:id/status
func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "id", "order ID")
	if !ok {
		return
	}

	var req services.UpdatePaymentStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdatePaymentStatus(c.Request.Context(), caller, orderID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyOrderUpdated, gin.H{"order": order})
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "id", "order ID")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), caller, orderID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"order": order})
}

// GET /orders
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	orders, total, err := h.orderService.ListMyOrders(c.Request.Context(), caller, models.PaymentStatus(c.Query("status")), params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, orders, total, params)
}

// GET /orders/sales
func (h *OrderHandler) ListSellerOrders(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	orders, total, err := h.orderService.ListSellerOrders(c.Request.Context(), caller, models.PaymentStatus(c.Query("status")), params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, orders, total, params)
}
