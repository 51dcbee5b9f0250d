package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/ws"
)

// MessageHandler manages message endpoints.
type MessageHandler struct {
	convRepo repositories.ConversationRepository
	msgRepo  repositories.MessageRepository
	hub      *ws.Hub
	audit    *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(convRepo repositories.ConversationRepository, msgRepo repositories.MessageRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		hub:      hub,
		audit:    audit,
	}
}

// ListMessages returns all messages of a conversation in insertion order.
// Deleted messages carry the placeholder; membership is trusted at the UI
// layer.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	conversationID, ok := parseConversationID(c)
	if !ok {
		return
	}
	viewerID := c.GetInt("userID")

	msgs, err := h.msgRepo.List(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, models.ViewOf(m, viewerID))
	}

	c.JSON(http.StatusOK, gin.H{"messages": views})
}

// SendMessage stores a message and broadcasts it. For direct conversations it
// advances the sender's own read timestamp to the message's creation time so
// senders never see their own message as unread.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	conversationID, ok := parseConversationID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	conv, err := h.convRepo.Get(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.msgRepo.Create(c.Request.Context(), conversationID, userID, req.Content)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	if conv.Type == models.ConversationDirect {
		participantOne := conv.IsParticipantOne(userID)
		if err := h.convRepo.SetReadTime(c.Request.Context(), conversationID, participantOne, msg.CreatedAt); err != nil {
			log.Error().Err(err).Int("conversation_id", conversationID).Msg("advance sender read time failed")
		}
	}

	h.hub.BroadcastMessage(conversationID, models.ViewOf(msg, 0))
	observability.IncMessageSent(string(conv.Type))
	h.emitAudit(c, "INFO", "Message sent")
	c.JSON(http.StatusCreated, models.ViewOf(msg, userID))
}

// DeleteMessage soft-deletes a message; only the sender may delete.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	conversationID, ok := parseConversationID(c)
	if !ok {
		return
	}
	messageID, ok := parseMessageID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	msg, err := h.msgRepo.Get(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}
	if msg.ConversationID != conversationID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message does not belong to conversation"})
		return
	}
	if msg.SenderID != userID {
		h.emitAudit(c, "ERROR", "not allowed to delete")
		c.JSON(http.StatusForbidden, gin.H{"error": "only the sender may delete a message"})
		return
	}

	if err := h.msgRepo.SoftDelete(c.Request.Context(), messageID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete message"})
		return
	}

	h.hub.BroadcastDeletion(conversationID, messageID)
	h.emitAudit(c, "INFO", "Message deleted")
	c.Status(http.StatusNoContent)
}

// MarkRead sets the caller's read timestamp for a direct conversation to now.
// Fire-and-forget: groups, unauthenticated callers and store errors all yield
// 204 with errors swallowed.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	conversationID, ok := parseConversationID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")
	if userID == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	conv, err := h.convRepo.Get(c.Request.Context(), conversationID)
	if err != nil {
		log.Warn().Err(err).Int("conversation_id", conversationID).Msg("mark read: conversation lookup failed")
		c.Status(http.StatusNoContent)
		return
	}
	if conv.Type == models.ConversationGroup || !conv.HasParticipant(userID) {
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.convRepo.MarkReadNow(c.Request.Context(), conversationID, conv.IsParticipantOne(userID)); err != nil {
		log.Warn().Err(err).Int("conversation_id", conversationID).Msg("mark read failed")
	}
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
