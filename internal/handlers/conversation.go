package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
)

// ConversationHandler manages conversation endpoints.
type ConversationHandler struct {
	convRepo repositories.ConversationRepository
	msgRepo  repositories.MessageRepository
	userRepo repositories.UserRepository
	audit    *telemetry.AuditEmitter
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(convRepo repositories.ConversationRepository, msgRepo repositories.MessageRepository, userRepo repositories.UserRepository, audit *telemetry.AuditEmitter) *ConversationHandler {
	return &ConversationHandler{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		userRepo: userRepo,
		audit:    audit,
	}
}

// ListConversations returns every conversation of the caller annotated for
// rendering. Unauthenticated callers get an empty list.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt("userID")
	if userID == 0 {
		c.JSON(http.StatusOK, gin.H{"conversations": []models.ConversationSummary{}})
		return
	}

	convs, err := h.convRepo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	summaries := make([]models.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary, err := h.summarize(c, conv, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build conversation list"})
			return
		}
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

func (h *ConversationHandler) summarize(c *gin.Context, conv models.Conversation, userID int) (models.ConversationSummary, error) {
	ctx := c.Request.Context()

	summary := models.ConversationSummary{
		ID:              conv.ID,
		Type:            conv.Type,
		LastMessage:     "No messages yet",
		LastMessageTime: conv.CreatedAt,
		CreatedAt:       conv.CreatedAt,
	}

	last, err := h.msgRepo.LastMessage(ctx, conv.ID)
	if err != nil {
		return models.ConversationSummary{}, err
	}
	if last != nil {
		summary.LastMessageTime = last.CreatedAt
		if last.IsDeleted {
			summary.LastMessage = models.DeletedPlaceholder
		} else {
			summary.LastMessage = last.Content
		}
	}

	if conv.Type == models.ConversationGroup {
		memberIDs, err := h.convRepo.MemberIDs(ctx, conv.ID)
		if err != nil {
			return models.ConversationSummary{}, err
		}
		members, err := h.userRepo.BulkUsers(ctx, memberIDs)
		if err != nil {
			return models.ConversationSummary{}, err
		}
		profiles := make([]models.Profile, 0, len(members))
		for _, m := range members {
			profiles = append(profiles, models.ProfileOf(m))
		}
		if conv.GroupName != nil {
			summary.DisplayName = *conv.GroupName
		}
		summary.Subtitle = fmt.Sprintf("%d members", len(memberIDs))
		summary.MemberProfiles = profiles
		summary.MemberCount = len(memberIDs)
		// Unread counting is a direct-chat-only feature; groups always report 0.
		summary.UnreadCount = 0
		return summary, nil
	}

	// Direct conversation.
	otherID := 0
	if conv.IsParticipantOne(userID) {
		if conv.ParticipantTwo != nil {
			otherID = *conv.ParticipantTwo
		}
	} else if conv.ParticipantOne != nil {
		otherID = *conv.ParticipantOne
	}

	if otherID != 0 {
		other, err := h.userRepo.GetUser(ctx, otherID)
		if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
			return models.ConversationSummary{}, err
		}
		if err == nil {
			profile := models.ProfileOf(other)
			summary.OtherUser = &profile
			summary.DisplayName = other.Name
			summary.Subtitle = other.Email
		}
	}
	summary.MemberCount = 2

	msgs, err := h.msgRepo.List(ctx, conv.ID)
	if err != nil {
		return models.ConversationSummary{}, err
	}
	summary.UnreadCount = repositories.UnreadCount(msgs, userID, conv.ReadTimeFor(userID))

	return summary, nil
}

// StartDirect creates or idempotently returns the direct conversation with
// another user.
func (h *ConversationHandler) StartDirect(c *gin.Context) {
	var req struct {
		OtherUserID int `json:"other_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if userID == req.OtherUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start a conversation with yourself"})
		return
	}

	if _, err := h.userRepo.GetUser(c.Request.Context(), req.OtherUserID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	conv, err := h.convRepo.StartDirect(c.Request.Context(), userID, req.OtherUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": conv.ID})
}

// CreateGroup creates a group conversation with the caller and the given
// members. Name and member-list emptiness are UI policy, not re-validated here.
func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Name      string `json:"name" binding:"required"`
		MemberIDs []int  `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.MemberIDs) > 0 {
		if _, err := h.userRepo.BulkUsers(c.Request.Context(), req.MemberIDs); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate members"})
			return
		}
	}

	conv, err := h.convRepo.CreateGroup(c.Request.Context(), userID, req.Name, req.MemberIDs)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	h.emitAudit(c, "INFO", "Group created")
	log.Info().Int("conversation_id", conv.ID).Int("creator_id", userID).Msg("group created")
	c.JSON(http.StatusCreated, gin.H{"conversation_id": conv.ID})
}

func (h *ConversationHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
