package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

// ReactionRepository defines the toggle-only reaction store.
type ReactionRepository interface {
	Toggle(ctx context.Context, messageID int, userID int, emoji string) (added bool, err error)
	ListForMessage(ctx context.Context, messageID int) ([]models.Reaction, error)
}

// ReactionRepo is a sqlx-backed implementation.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs a ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// Toggle removes the (message, user, emoji) row if present, inserts it
// otherwise. The lookup and write share a transaction; calling twice returns
// the reaction set to its pre-toggle state.
func (r *ReactionRepo) Toggle(ctx context.Context, messageID int, userID int, emoji string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var existingID int
	err = tx.GetContext(ctx, &existingID, `SELECT id FROM reactions WHERE message_id=$1 AND user_id=$2 AND emoji=$3`,
		messageID, userID, emoji)
	switch {
	case err == nil:
		if _, err = tx.ExecContext(ctx, `DELETE FROM reactions WHERE id=$1`, existingID); err != nil {
			return false, err
		}
		err = tx.Commit()
		return false, err
	case errors.Is(err, sql.ErrNoRows):
		if _, err = tx.ExecContext(ctx, `INSERT INTO reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)`,
			messageID, userID, emoji); err != nil {
			return false, err
		}
		err = tx.Commit()
		return true, err
	default:
		return false, err
	}
}

// ListForMessage returns all reaction rows for a message in creation order.
func (r *ReactionRepo) ListForMessage(ctx context.Context, messageID int) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.SelectContext(ctx, &reactions, `SELECT id, message_id, user_id, emoji, created_at
        FROM reactions WHERE message_id=$1 ORDER BY created_at ASC, id ASC`, messageID)
	return reactions, err
}
