package models

import "time"

// TypingState is an ephemeral liveness row, one per (conversation, user).
// Readers treat it as live only while its age is under the typing window;
// stale rows are ignored rather than purged.
type TypingState struct {
	ConversationID int       `db:"conversation_id" json:"conversation_id"`
	UserID         int       `db:"user_id" json:"user_id"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
