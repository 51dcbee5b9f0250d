package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/ws"
)

// ReactionHandler manages per-message emoji reactions.
type ReactionHandler struct {
	msgRepo      repositories.MessageRepository
	reactionRepo repositories.ReactionRepository
	hub          *ws.Hub
}

// NewReactionHandler builds a ReactionHandler.
func NewReactionHandler(msgRepo repositories.MessageRepository, reactionRepo repositories.ReactionRepository, hub *ws.Hub) *ReactionHandler {
	return &ReactionHandler{
		msgRepo:      msgRepo,
		reactionRepo: reactionRepo,
		hub:          hub,
	}
}

// ToggleReaction is the only reaction mutation path: inserts the caller's
// (message, emoji) row if absent, removes it if present. Toggling twice
// returns to the original state.
func (h *ReactionHandler) ToggleReaction(c *gin.Context) {
	messageID, ok := parseMessageID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.msgRepo.Get(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}

	added, err := h.reactionRepo.Toggle(c.Request.Context(), messageID, userID, req.Emoji)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not toggle reaction"})
		return
	}

	rows, err := h.reactionRepo.ListForMessage(c.Request.Context(), messageID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reactions"})
		return
	}
	summary := models.SummarizeReactions(rows, userID)

	h.hub.BroadcastReaction(msg.ConversationID, messageID, models.SummarizeReactions(rows, 0))
	c.JSON(http.StatusOK, gin.H{"added": added, "reactions": summary})
}

// ListReactions aggregates reaction rows into one entry per emoji with a
// count and whether the caller reacted. Unauthenticated callers get counts
// with reacted=false.
func (h *ReactionHandler) ListReactions(c *gin.Context) {
	messageID, ok := parseMessageID(c)
	if !ok {
		return
	}
	viewerID := c.GetInt("userID")

	rows, err := h.reactionRepo.ListForMessage(c.Request.Context(), messageID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reactions": models.SummarizeReactions(rows, viewerID)})
}
