package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
)

// Hub maintains the active websocket room per conversation. Every mutation
// that changes a conversation's visible state is broadcast to its room so
// subscribers can reconcile their local view.
type Hub struct {
	rooms    map[int]map[*websocket.Conn]bool
	connInfo map[int]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[int]map[*websocket.Conn]bool),
		connInfo: make(map[int]map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a websocket connection to a conversation room.
func (h *Hub) AddClient(conversationID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[conversationID][conn] = true
	if _, ok := h.connInfo[conversationID]; !ok {
		h.connInfo[conversationID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[conversationID][conn] = info
}

// RemoveClient removes a websocket connection from a conversation room.
func (h *Hub) RemoveClient(conversationID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[conversationID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	if infos, ok := h.connInfo[conversationID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, conversationID)
		}
	}
}

// Broadcast sends an event to every client in a conversation room, evicting
// connections whose writes fail.
func (h *Hub) Broadcast(conversationID int, event models.Event) {
	h.mu.RLock()
	conns := h.rooms[conversationID]
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Warn().Err(err).Int("conversation_id", conversationID).Msg("websocket write error")
			conn.Close()
			h.RemoveClient(conversationID, conn)
			h.publishWSError(conversationID, conn, err)
		}
	}
}

// BroadcastMessage notifies the room about a new message.
func (h *Hub) BroadcastMessage(conversationID int, view models.MessageView) {
	h.Broadcast(conversationID, models.Event{Type: "message", Message: &view})
}

// BroadcastDeletion notifies the room that a message was soft-deleted.
func (h *Hub) BroadcastDeletion(conversationID int, messageID int) {
	h.Broadcast(conversationID, models.Event{Type: "message_deleted", MessageID: messageID})
}

// BroadcastReaction pushes the refreshed per-emoji summary for a message.
func (h *Hub) BroadcastReaction(conversationID int, messageID int, summary []models.ReactionSummary) {
	h.Broadcast(conversationID, models.Event{Type: "reaction", MessageID: messageID, Reactions: summary})
}

// BroadcastTyping relays a typing pulse; consumers filter out their own.
func (h *Hub) BroadcastTyping(conversationID int, userID int, isTyping bool) {
	h.Broadcast(conversationID, models.Event{Type: "typing", UserID: userID, IsTyping: isTyping})
}

func (h *Hub) publishWSError(conversationID int, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(conversationID, conn)
	if !ok {
		return
	}

	_ = observability.PublishEvent(context.Background(), "ws_events.conversations", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"conversation_id": conversationID,
				"event":           "ws_error",
				"conn_id":         info.ConnID,
				"duration_ms":     time.Since(info.ConnectedAt).Milliseconds(),
				"reason":          err.Error(),
			},
			"identity": map[string]interface{}{
				"user_id":    info.UserID,
				"device_id":  info.DeviceID,
				"ip":         info.IP,
				"request_id": info.RequestID,
				"trace_id":   info.TraceID,
			},
		},
	})
	observability.IncWSEvent("ws_error")
}

func (h *Hub) getConnInfo(conversationID int, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[conversationID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
