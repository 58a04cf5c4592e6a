// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/b2b-marketplace/internal/i18n"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/services"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// GET /orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	req, ok := orderListRequest(c)
	if !ok {
		return
	}

	result, err := h.orderService.ListMine(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /orders/supplier
func (h *OrderHandler) ListForSupplier(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	req, ok := orderListRequest(c)
	if !ok {
		return
	}

	result, err := h.orderService.ListForSupplier(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"order": order})
}

// PUT /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyOrderStatusUpdated, gin.H{"order": order})
}

// POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyOrderCancelled, gin.H{"order": order})
}

func orderListRequest(c *gin.Context) (services.OrderListRequest, bool) {
	req := services.OrderListRequest{Pagination: utils.GetPaginationParams(c)}
	if status := c.Query("status"); status != "" {
		req.Status = models.OrderStatus(status)
		if !req.Status.IsValid() {
			badQuery(c, "status")
			return req, false
		}
	}
	return req, true
}
