package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lexia-go/internal/service"
	"lexia-go/pkg/token"
)

// ConversationHandler handles conversation history reads.
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// ListConversations handles GET /api/v1/conversations.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)

	summaries, err := h.service.ListConversations(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "failed to retrieve conversations",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": summaries})
}

// ListMessages handles GET /api/v1/conversations/:id/messages.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid conversation id", "data": nil})
		return
	}

	messages, err := h.service.ListMessages(c.Request.Context(), claims.UserID, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "conversation not found", "data": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "failed to retrieve messages",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": messages})
}
