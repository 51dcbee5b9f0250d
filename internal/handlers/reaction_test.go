package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/ws"
)

func setupReactionRouter(handler *ReactionHandler, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.POST("/messages/:message_id/reactions", handler.ToggleReaction)
	r.GET("/messages/:message_id/reactions", handler.ListReactions)
	return r
}

func TestToggleReactionAdds(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	reactionRepo := new(mocks.ReactionRepositoryMock)
	handler := NewReactionHandler(msgRepo, reactionRepo, ws.NewHub())
	router := setupReactionRouter(handler, 1)

	msg := models.Message{ID: 42, ConversationID: 5, SenderID: 2}
	rows := []models.Reaction{
		{ID: 1, MessageID: 42, UserID: 1, Emoji: "👍"},
		{ID: 2, MessageID: 42, UserID: 2, Emoji: "👍"},
	}

	msgRepo.On("Get", mock.Anything, 42).Return(msg, nil).Once()
	reactionRepo.On("Toggle", mock.Anything, 42, 1, "👍").Return(true, nil).Once()
	reactionRepo.On("ListForMessage", mock.Anything, 42).Return(rows, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages/42/reactions", bytes.NewBufferString(`{"emoji":"👍"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Added     bool                     `json:"added"`
		Reactions []models.ReactionSummary `json:"reactions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Added)
	require.Len(t, resp.Reactions, 1)
	assert.Equal(t, "👍", resp.Reactions[0].Emoji)
	assert.Equal(t, 2, resp.Reactions[0].Count)
	assert.True(t, resp.Reactions[0].Reacted)

	msgRepo.AssertExpectations(t)
	reactionRepo.AssertExpectations(t)
}

func TestToggleReactionRemoves(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	reactionRepo := new(mocks.ReactionRepositoryMock)
	handler := NewReactionHandler(msgRepo, reactionRepo, ws.NewHub())
	router := setupReactionRouter(handler, 1)

	msg := models.Message{ID: 42, ConversationID: 5, SenderID: 2}
	msgRepo.On("Get", mock.Anything, 42).Return(msg, nil).Once()
	reactionRepo.On("Toggle", mock.Anything, 42, 1, "❤️").Return(false, nil).Once()
	reactionRepo.On("ListForMessage", mock.Anything, 42).Return([]models.Reaction{}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages/42/reactions", bytes.NewBufferString(`{"emoji":"❤️"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Added     bool                     `json:"added"`
		Reactions []models.ReactionSummary `json:"reactions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Added)
	assert.Empty(t, resp.Reactions)
}

func TestToggleReactionMissingEmoji(t *testing.T) {
	handler := NewReactionHandler(new(mocks.MessageRepositoryMock), new(mocks.ReactionRepositoryMock), ws.NewHub())
	router := setupReactionRouter(handler, 1)

	req := httptest.NewRequest(http.MethodPost, "/messages/42/reactions", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReactionsUnauthenticatedViewer(t *testing.T) {
	reactionRepo := new(mocks.ReactionRepositoryMock)
	handler := NewReactionHandler(new(mocks.MessageRepositoryMock), reactionRepo, ws.NewHub())
	router := setupReactionRouter(handler, 0)

	rows := []models.Reaction{
		{ID: 1, MessageID: 42, UserID: 1, Emoji: "🎉"},
		{ID: 2, MessageID: 42, UserID: 2, Emoji: "🎉"},
	}
	reactionRepo.On("ListForMessage", mock.Anything, 42).Return(rows, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/42/reactions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Reactions []models.ReactionSummary `json:"reactions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Reactions, 1)
	assert.Equal(t, 2, resp.Reactions[0].Count)
	assert.False(t, resp.Reactions[0].Reacted)
}
