// internal/handlers/cart.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/b2b-marketplace/internal/i18n"
	"github.com/javajoker/b2b-marketplace/internal/services"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

// IdempotencyKeyHeader lets a client retry checkout without placing a
// second order.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

type CartHandler struct {
	cartService     *services.CartService
	checkoutService *services.CheckoutService
}

func NewCartHandler(cartService *services.CartService, checkoutService *services.CheckoutService) *CartHandler {
	return &CartHandler{
		cartService:     cartService,
		checkoutService: checkoutService,
	}
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	cart, err := h.cartService.GetCart(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"cart": cart})
}

// POST /cart/add
func (h *CartHandler) AddItem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), actor.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyCartItemAdded, gin.H{"cart": cart})
}

// PUT /cart/update/:productId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, ok := utils.ParseUUIDParam(c, "productId", "product")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := h.cartService.UpdateItem(c.Request.Context(), actor.ID, productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyCartItemUpdated, gin.H{"cart": cart})
}

// DELETE /cart/remove/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := utils.ParseUUIDParam(c, "productId", "product")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveItem(c.Request.Context(), actor.ID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyCartItemRemoved, gin.H{"cart": cart})
}

// DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := h.cartService.Clear(c.Request.Context(), actor.ID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyCartCleared, nil)
}

// POST /cart/checkout
func (h *CartHandler) Checkout(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, IdempotencyKeyHeader), nil)
		return
	}

	var req services.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.checkoutService.Checkout(c.Request.Context(), actor.ID, &req, key)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyOrderPlaced, gin.H{"order": order})
}
