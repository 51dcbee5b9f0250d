package models

import "time"

// DeletedPlaceholder replaces the content of soft-deleted messages everywhere
// they are rendered.
const DeletedPlaceholder = "This message was deleted"

// Message is an append-only message record. Deletion only sets IsDeleted;
// once flagged, the original content never leaves the store layer.
type Message struct {
	ID             int       `db:"id" json:"id"`
	ConversationID int       `db:"conversation_id" json:"conversation_id"`
	SenderID       int       `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	IsDeleted      bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// MessageView is the rendering-boundary shape of a message.
type MessageView struct {
	ID        int               `json:"id"`
	Content   string            `json:"content"`
	IsDeleted bool              `json:"is_deleted"`
	IsMine    bool              `json:"is_mine"`
	SenderID  int               `json:"sender_id"`
	CreatedAt time.Time         `json:"created_at"`
	Reactions []ReactionSummary `json:"reactions,omitempty"`
}

// ViewOf projects a message for a viewer, substituting the placeholder for
// deleted content.
func ViewOf(m Message, viewerID int) MessageView {
	content := m.Content
	if m.IsDeleted {
		content = DeletedPlaceholder
	}
	return MessageView{
		ID:        m.ID,
		Content:   content,
		IsDeleted: m.IsDeleted,
		IsMine:    viewerID != 0 && m.SenderID == viewerID,
		SenderID:  m.SenderID,
		CreatedAt: m.CreatedAt,
	}
}

// Event is broadcast through websockets whenever a conversation's visible
// state changes.
type Event struct {
	Type      string            `json:"type"`
	Message   *MessageView      `json:"message,omitempty"`
	MessageID int               `json:"message_id,omitempty"`
	Reactions []ReactionSummary `json:"reactions,omitempty"`
	UserID    int               `json:"user_id,omitempty"`
	IsTyping  bool              `json:"is_typing,omitempty"`
}
