package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
)

func setupConversationRouter(handler *ConversationHandler, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.GET("/conversations", handler.ListConversations)
	r.POST("/conversations/direct", handler.StartDirect)
	r.POST("/conversations/groups", handler.CreateGroup)
	return r
}

func intPtr(v int) *int { return &v }

func TestListConversationsDirectWithUnread(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewConversationHandler(convRepo, msgRepo, userRepo, nil)
	router := setupConversationRouter(handler, 1)

	created := time.Now().Add(-time.Hour)
	conv := models.Conversation{
		ID:             3,
		Type:           models.ConversationDirect,
		ParticipantOne: intPtr(1),
		ParticipantTwo: intPtr(2),
		CreatedAt:      created,
	}
	last := models.Message{ID: 9, ConversationID: 3, SenderID: 2, Content: "hi", CreatedAt: created.Add(time.Minute)}

	convRepo.On("ListForUser", mock.Anything, 1).Return([]models.Conversation{conv}, nil).Once()
	msgRepo.On("LastMessage", mock.Anything, 3).Return(&last, nil).Once()
	userRepo.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, Name: "bob", Email: "bob@example.com"}, nil).Once()
	msgRepo.On("List", mock.Anything, 3).Return([]models.Message{last}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Conversations, 1)

	got := resp.Conversations[0]
	assert.Equal(t, "bob", got.DisplayName)
	assert.Equal(t, "hi", got.LastMessage)
	assert.Equal(t, 1, got.UnreadCount)
	assert.Equal(t, 2, got.MemberCount)

	convRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestListConversationsGroupAlwaysZeroUnread(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewConversationHandler(convRepo, msgRepo, userRepo, nil)
	router := setupConversationRouter(handler, 1)

	name := "Team"
	conv := models.Conversation{ID: 7, Type: models.ConversationGroup, GroupName: &name, CreatedBy: intPtr(1), CreatedAt: time.Now()}

	convRepo.On("ListForUser", mock.Anything, 1).Return([]models.Conversation{conv}, nil).Once()
	msgRepo.On("LastMessage", mock.Anything, 7).Return((*models.Message)(nil), nil).Once()
	convRepo.On("MemberIDs", mock.Anything, 7).Return([]int{1, 2, 3}, nil).Once()
	userRepo.On("BulkUsers", mock.Anything, []int{1, 2, 3}).Return([]models.User{{ID: 1}, {ID: 2}, {ID: 3}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Conversations, 1)

	got := resp.Conversations[0]
	assert.Equal(t, "Team", got.DisplayName)
	assert.Equal(t, 3, got.MemberCount)
	assert.Equal(t, 0, got.UnreadCount)
	assert.Equal(t, "No messages yet", got.LastMessage)

	convRepo.AssertExpectations(t)
}

func TestListConversationsUnauthenticated(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)
	router := setupConversationRouter(handler, 0)

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Conversations)
	convRepo.AssertNotCalled(t, "ListForUser", mock.Anything, mock.Anything)
}

func TestStartDirectSuccess(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.MessageRepositoryMock), userRepo, nil)
	router := setupConversationRouter(handler, 1)

	userRepo.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2}, nil).Once()
	convRepo.On("StartDirect", mock.Anything, 1, 2).Return(models.Conversation{ID: 10}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/direct", bytes.NewBufferString(`{"other_user_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	convRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestStartDirectWithSelf(t *testing.T) {
	handler := NewConversationHandler(new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)
	router := setupConversationRouter(handler, 1)

	req := httptest.NewRequest(http.MethodPost, "/conversations/direct", bytes.NewBufferString(`{"other_user_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGroupSuccess(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.MessageRepositoryMock), userRepo, nil)
	router := setupConversationRouter(handler, 1)

	userRepo.On("BulkUsers", mock.Anything, []int{2, 3}).Return([]models.User{{ID: 2}, {ID: 3}}, nil).Once()
	convRepo.On("CreateGroup", mock.Anything, 1, "Team", []int{2, 3}).Return(models.Conversation{ID: 7}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/groups", bytes.NewBufferString(`{"name":"Team","member_ids":[2,3]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	convRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestCreateGroupMissingName(t *testing.T) {
	handler := NewConversationHandler(new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)
	router := setupConversationRouter(handler, 1)

	req := httptest.NewRequest(http.MethodPost, "/conversations/groups", bytes.NewBufferString(`{"member_ids":[2]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
