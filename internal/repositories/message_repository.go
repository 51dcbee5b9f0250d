package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for messages. Every read masks the
// content of soft-deleted messages so the original text never leaves the
// store layer.
type MessageRepository interface {
	Create(ctx context.Context, conversationID int, senderID int, content string) (models.Message, error)
	List(ctx context.Context, conversationID int) ([]models.Message, error)
	Get(ctx context.Context, messageID int) (models.Message, error)
	LastMessage(ctx context.Context, conversationID int) (*models.Message, error)
	SoftDelete(ctx context.Context, messageID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const maskedMessageColumns = `id, conversation_id, sender_id,
        CASE WHEN is_deleted THEN '' ELSE content END AS content,
        is_deleted, created_at`

// Create stores a message. The creation timestamp is assigned by the database
// and immutable afterwards.
func (r *MessageRepo) Create(ctx context.Context, conversationID int, senderID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (conversation_id, sender_id, content)
        VALUES ($1, $2, $3) RETURNING id, conversation_id, sender_id, content, is_deleted, created_at`,
		conversationID, senderID, content).
		StructScan(&msg)
	return msg, err
}

// List returns all messages of a conversation in insertion order.
func (r *MessageRepo) List(ctx context.Context, conversationID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+maskedMessageColumns+`
        FROM messages WHERE conversation_id=$1 ORDER BY created_at ASC, id ASC`, conversationID)
	return msgs, err
}

// Get retrieves a single message, content masked when deleted.
func (r *MessageRepo) Get(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+maskedMessageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// LastMessage returns the newest message of a conversation, or nil when the
// conversation has none.
func (r *MessageRepo) LastMessage(ctx context.Context, conversationID int) (*models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+maskedMessageColumns+`
        FROM messages WHERE conversation_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// SoftDelete flags a message as deleted. The row and its content stay in
// storage; sender authorization happens at the handler.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_deleted = TRUE WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
