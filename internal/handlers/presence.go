package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"messenger-service/internal/models"
	"messenger-service/internal/presence"
	"messenger-service/internal/repositories"
	"messenger-service/internal/ws"
)

// PresenceHandler manages typing pulses, heartbeats and the online list.
type PresenceHandler struct {
	userRepo   repositories.UserRepository
	typingRepo repositories.TypingRepository
	hub        *ws.Hub
	now        func() time.Time
}

// NewPresenceHandler builds a PresenceHandler.
func NewPresenceHandler(userRepo repositories.UserRepository, typingRepo repositories.TypingRepository, hub *ws.Hub) *PresenceHandler {
	return &PresenceHandler{
		userRepo:   userRepo,
		typingRepo: typingRepo,
		hub:        hub,
		now:        time.Now,
	}
}

// SetTyping upserts or clears the caller's typing row. Fire-and-forget: 204
// always, errors swallowed so a lost pulse never interrupts the user flow.
func (h *PresenceHandler) SetTyping(c *gin.Context) {
	conversationID, ok := parseConversationID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")
	if userID == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	var req struct {
		IsTyping *bool `json:"is_typing" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.typingRepo.SetTyping(c.Request.Context(), conversationID, userID, *req.IsTyping); err != nil {
		log.Warn().Err(err).Int("conversation_id", conversationID).Msg("typing pulse failed")
		c.Status(http.StatusNoContent)
		return
	}

	h.hub.BroadcastTyping(conversationID, userID, *req.IsTyping)
	c.Status(http.StatusNoContent)
}

// ListTypingUsers returns profiles for typing rows still inside the typing
// window. Stale rows are excluded at read time, not purged; the caller's own
// row is excluded by the consumer, not here.
func (h *PresenceHandler) ListTypingUsers(c *gin.Context) {
	conversationID, ok := parseConversationID(c)
	if !ok {
		return
	}

	states, err := h.typingRepo.ListForConversation(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load typing state"})
		return
	}

	now := h.now()
	liveIDs := make([]int, 0, len(states))
	for _, s := range states {
		if presence.TypingLive(s.UpdatedAt, now) {
			liveIDs = append(liveIDs, s.UserID)
		}
	}

	users, err := h.userRepo.BulkUsers(c.Request.Context(), liveIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}

	profiles := make([]models.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, models.ProfileOf(u))
	}
	c.JSON(http.StatusOK, gin.H{"typing_users": profiles})
}

// Heartbeat marks the caller online and refreshes last_seen. Fire-and-forget.
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	userID := c.GetInt("userID")
	if userID == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.userRepo.Heartbeat(c.Request.Context(), userID); err != nil {
		log.Warn().Err(err).Int("user_id", userID).Msg("heartbeat failed")
	}
	c.Status(http.StatusNoContent)
}

// ListOnlineUsers returns users whose heartbeat is inside the online window.
// Users who stop sending heartbeats silently age out, even while their
// is_online flag is still set.
func (h *PresenceHandler) ListOnlineUsers(c *gin.Context) {
	users, err := h.userRepo.ListOnlineFlagged(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load online users"})
		return
	}

	now := h.now()
	profiles := make([]models.Profile, 0, len(users))
	for _, u := range users {
		if presence.OnlineLive(u.LastSeen, now) {
			profiles = append(profiles, models.ProfileOf(u))
		}
	}
	c.JSON(http.StatusOK, gin.H{"online_users": profiles})
}
