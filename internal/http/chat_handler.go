package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rag-chat/internal/service"
)

// defaultUserID es el usuario implícito de todas las operaciones: el
// servicio no autentica llamadas. Se pasa explícito en cada llamada al
// servicio en vez de asumirse adentro.
const defaultUserID int64 = 1

// ChatHandler mantiene dependencias para los endpoints de chat.
type ChatHandler struct {
	logger  *zap.Logger
	chatSvc *service.ChatService
}

func NewChatHandler(logger *zap.Logger, chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{logger: logger, chatSvc: chatSvc}
}

// Health maneja GET /api/health.
func (h *ChatHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Chat maneja POST /api/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req struct {
		Message        string `json:"message" binding:"required"`
		ConversationID *int64 `json:"conversation_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	h.logger.Info("processing chat request",
		zap.Int("message_length", len(req.Message)),
		zap.Int64p("conversation_id", req.ConversationID),
	)

	result, err := h.chatSvc.ProcessMessage(c.Request.Context(), service.ChatRequest{
		Message:        req.Message,
		ConversationID: req.ConversationID,
	}, defaultUserID)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Conversation not found"})
			return
		}
		h.logger.Error("chat processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to process message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// ListConversations maneja GET /api/conversations.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	conversations, err := h.chatSvc.ListConversations(c.Request.Context(), defaultUserID)
	if err != nil {
		h.logger.Error("list conversations failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch conversations"})
		return
	}

	items := make([]gin.H, 0, len(conversations))
	for _, conv := range conversations {
		items = append(items, gin.H{
			"id":         conv.ID,
			"title":      conv.Title,
			"updated_at": conv.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

// ListMessages maneja GET /api/conversations/:id/messages.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid conversation ID"})
		return
	}

	messages, err := h.chatSvc.ListMessages(c.Request.Context(), conversationID)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Conversation not found"})
			return
		}
		h.logger.Error("list messages failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch messages"})
		return
	}

	items := make([]gin.H, 0, len(messages))
	for _, msg := range messages {
		items = append(items, gin.H{
			"id":        msg.ID,
			"content":   msg.Content,
			"is_user":   msg.IsUser,
			"timestamp": msg.Timestamp,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}
