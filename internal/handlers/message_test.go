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
	"messenger-service/internal/repositories"
	"messenger-service/internal/ws"
)

func setupMessageRouter(handler *MessageHandler, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.GET("/conversations/:conversation_id/messages", handler.ListMessages)
	r.POST("/conversations/:conversation_id/messages", handler.SendMessage)
	r.DELETE("/conversations/:conversation_id/messages/:message_id", handler.DeleteMessage)
	r.POST("/conversations/:conversation_id/read", handler.MarkRead)
	return r
}

func TestSendMessageDirectAdvancesSenderReadTime(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(convRepo, msgRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, 1)

	conv := models.Conversation{ID: 5, Type: models.ConversationDirect, ParticipantOne: intPtr(1), ParticipantTwo: intPtr(2)}
	created := time.Now()
	msg := models.Message{ID: 42, ConversationID: 5, SenderID: 1, Content: "hello", CreatedAt: created}

	convRepo.On("Get", mock.Anything, 5).Return(conv, nil).Once()
	msgRepo.On("Create", mock.Anything, 5, 1, "hello").Return(msg, nil).Once()
	convRepo.On("SetReadTime", mock.Anything, 5, true, created).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/5/messages", bytes.NewBufferString(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var view models.MessageView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, 42, view.ID)
	assert.Equal(t, "hello", view.Content)
	assert.True(t, view.IsMine)

	convRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
}

func TestSendMessageGroupSkipsReadTime(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(convRepo, msgRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, 1)

	name := "Team"
	conv := models.Conversation{ID: 7, Type: models.ConversationGroup, GroupName: &name}
	msg := models.Message{ID: 43, ConversationID: 7, SenderID: 1, Content: "hi all", CreatedAt: time.Now()}

	convRepo.On("Get", mock.Anything, 7).Return(conv, nil).Once()
	msgRepo.On("Create", mock.Anything, 7, 1, "hi all").Return(msg, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/7/messages", bytes.NewBufferString(`{"content":"hi all"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	convRepo.AssertNotCalled(t, "SetReadTime", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	convRepo.AssertExpectations(t)
}

func TestSendMessageUnknownConversation(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewMessageHandler(convRepo, new(mocks.MessageRepositoryMock), ws.NewHub(), nil)
	router := setupMessageRouter(handler, 1)

	convRepo.On("Get", mock.Anything, 999).Return(nil, repositories.ErrConversationNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/999/messages", bytes.NewBufferString(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMessagesMasksDeleted(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.ConversationRepositoryMock), msgRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, 1)

	msgs := []models.Message{
		{ID: 1, ConversationID: 5, SenderID: 2, Content: "first", CreatedAt: time.Now()},
		{ID: 2, ConversationID: 5, SenderID: 2, Content: "", IsDeleted: true, CreatedAt: time.Now()},
	}
	msgRepo.On("List", mock.Anything, 5).Return(msgs, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []models.MessageView `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "first", resp.Messages[0].Content)
	assert.Equal(t, models.DeletedPlaceholder, resp.Messages[1].Content)
	assert.True(t, resp.Messages[1].IsDeleted)
}

func TestDeleteMessageBySender(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.ConversationRepositoryMock), msgRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, 1)

	msg := models.Message{ID: 42, ConversationID: 5, SenderID: 1, Content: "oops"}
	msgRepo.On("Get", mock.Anything, 42).Return(msg, nil).Once()
	msgRepo.On("SoftDelete", mock.Anything, 42).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/conversations/5/messages/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	msgRepo.AssertExpectations(t)
}

func TestDeleteMessageByNonSender(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.ConversationRepositoryMock), msgRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, 3)

	msg := models.Message{ID: 42, ConversationID: 5, SenderID: 1, Content: "not yours"}
	msgRepo.On("Get", mock.Anything, 42).Return(msg, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/conversations/5/messages/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	msgRepo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}

func TestDeleteMessageWrongConversation(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.ConversationRepositoryMock), msgRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, 1)

	msg := models.Message{ID: 42, ConversationID: 8, SenderID: 1}
	msgRepo.On("Get", mock.Anything, 42).Return(msg, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/conversations/5/messages/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkReadDirect(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewMessageHandler(convRepo, new(mocks.MessageRepositoryMock), ws.NewHub(), nil)
	router := setupMessageRouter(handler, 2)

	conv := models.Conversation{ID: 5, Type: models.ConversationDirect, ParticipantOne: intPtr(1), ParticipantTwo: intPtr(2)}
	convRepo.On("Get", mock.Anything, 5).Return(conv, nil).Once()
	convRepo.On("MarkReadNow", mock.Anything, 5, false).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/5/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	convRepo.AssertExpectations(t)
}

func TestMarkReadGroupIsNoop(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewMessageHandler(convRepo, new(mocks.MessageRepositoryMock), ws.NewHub(), nil)
	router := setupMessageRouter(handler, 1)

	name := "Team"
	conv := models.Conversation{ID: 7, Type: models.ConversationGroup, GroupName: &name}
	convRepo.On("Get", mock.Anything, 7).Return(conv, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/7/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	convRepo.AssertNotCalled(t, "MarkReadNow", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkReadUnauthenticated(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewMessageHandler(convRepo, new(mocks.MessageRepositoryMock), ws.NewHub(), nil)
	router := setupMessageRouter(handler, 0)

	req := httptest.NewRequest(http.MethodPost, "/conversations/5/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	convRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}
