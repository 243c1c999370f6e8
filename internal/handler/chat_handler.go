// Package handler contains the controller logic for HTTP requests.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lexia-go/internal/service"
	"lexia-go/pkg/llm"
	"lexia-go/pkg/log"
	"lexia-go/pkg/token"
)

// ChatHandler handles chat turn submissions.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type chatRequest struct {
	// ConversationID zero (or absent) starts a new conversation.
	ConversationID uint   `json:"conversation_id"`
	Provider       string `json:"provider" binding:"required"`
	APIKey         string `json:"api_key"`
	Message        string `json:"message" binding:"required"`
}

// SubmitTurn handles POST /api/v1/chat: one user message in, one assistant
// reply out. The provider choice and API key ride on every request.
func (h *ChatHandler) SubmitTurn(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request body", "data": nil})
		return
	}

	result, err := h.chatService.SubmitTurn(c.Request.Context(), claims.UserID, req.ConversationID, req.Provider, req.APIKey, req.Message)
	if err != nil {
		if result != nil {
			// The model answered but the reply could not be recorded. Hand the
			// text over anyway so the client may show it transiently.
			log.Error("assistant reply generated but not persisted", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "reply was generated but could not be saved",
				"data":    result,
			})
			return
		}
		status, msg := turnErrorStatus(err)
		c.JSON(status, gin.H{"code": status, "message": msg, "data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": result})
}

// turnErrorStatus maps an orchestration failure to an HTTP status and a
// single human-readable message. Gateway failures arrive pre-normalized, so
// there is no provider-specific branching here.
func turnErrorStatus(err error) (int, string) {
	if errors.Is(err, service.ErrNotFound) {
		return http.StatusNotFound, "conversation not found"
	}
	if e, ok := llm.AsError(err); ok {
		switch e.Kind {
		case llm.ErrKindMissingCredentials, llm.ErrKindUnsupportedProvider:
			return http.StatusBadRequest, e.Message
		default:
			return http.StatusBadGateway, e.Message
		}
	}
	log.Error("chat turn failed", err)
	return http.StatusInternalServerError, "failed to process the message"
}
