package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

// TypingRepository stores ephemeral typing pulses, one row per
// (conversation, user).
type TypingRepository interface {
	SetTyping(ctx context.Context, conversationID int, userID int, isTyping bool) error
	ListForConversation(ctx context.Context, conversationID int) ([]models.TypingState, error)
}

// TypingRepo is a sqlx-backed implementation.
type TypingRepo struct {
	db *sqlx.DB
}

// NewTypingRepo constructs a TypingRepo.
func NewTypingRepo(db *sqlx.DB) *TypingRepo {
	return &TypingRepo{db: db}
}

// SetTyping upserts the caller's typing row on a true pulse and deletes it on
// a false pulse. Stale rows are never deleted here; readers ignore them past
// the typing window.
func (r *TypingRepo) SetTyping(ctx context.Context, conversationID int, userID int, isTyping bool) error {
	if isTyping {
		_, err := r.db.ExecContext(ctx, `INSERT INTO typing_states (conversation_id, user_id, updated_at)
            VALUES ($1, $2, NOW())
            ON CONFLICT (conversation_id, user_id) DO UPDATE SET updated_at = NOW()`, conversationID, userID)
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM typing_states WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	return err
}

// ListForConversation returns all typing rows for a conversation, live or
// stale. Callers apply the window at read time.
func (r *TypingRepo) ListForConversation(ctx context.Context, conversationID int) ([]models.TypingState, error) {
	var states []models.TypingState
	err := r.db.SelectContext(ctx, &states, `SELECT conversation_id, user_id, updated_at
        FROM typing_states WHERE conversation_id=$1`, conversationID)
	return states, err
}
