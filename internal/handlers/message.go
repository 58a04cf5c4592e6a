// internal/handlers/message.go
package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/b2b-marketplace/internal/i18n"
	"github.com/javajoker/b2b-marketplace/internal/services"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// GET /messages?with=<userId>&since=<RFC3339>&unread=true
func (h *MessageHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	req := services.MessageListRequest{Pagination: utils.GetPaginationParams(c)}

	if raw := c.Query("with"); raw != "" {
		with, err := uuid.Parse(raw)
		if err != nil {
			badQuery(c, "with")
			return
		}
		req.With = &with
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badQuery(c, "since")
			return
		}
		req.Since = &since
	}

	if raw := c.Query("unread"); raw != "" {
		unread, err := strconv.ParseBool(raw)
		if err != nil {
			badQuery(c, "unread")
			return
		}
		req.UnreadOnly = unread
	}

	result, err := h.messageService.List(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /messages/conversations
func (h *MessageHandler) Conversations(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	conversations, err := h.messageService.Conversations(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"conversations": conversations})
}

// GET /messages/unread-count
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	count, err := h.messageService.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"count": count})
}

// POST /messages
func (h *MessageHandler) Send(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.messageService.Send(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyMessageSent, gin.H{"message": message})
}

// PUT /messages/:id/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "message")
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	message, err := h.messageService.MarkRead(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": message})
}
