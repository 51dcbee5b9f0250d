package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	StartDirect(ctx context.Context, userID int, otherID int) (models.Conversation, error)
	CreateGroup(ctx context.Context, creatorID int, name string, memberIDs []int) (models.Conversation, error)
	Get(ctx context.Context, conversationID int) (models.Conversation, error)
	ListForUser(ctx context.Context, userID int) ([]models.Conversation, error)
	MemberIDs(ctx context.Context, conversationID int) ([]int, error)
	IsMember(ctx context.Context, conversationID int, userID int) (bool, error)
	SetReadTime(ctx context.Context, conversationID int, participantOne bool, at time.Time) error
	MarkReadNow(ctx context.Context, conversationID int, participantOne bool) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, type, participant_one, participant_two, participant_one_read_at, participant_two_read_at, group_name, created_by, created_at`

// StartDirect returns the existing direct conversation between the pair,
// checking both orderings, or creates one with no read timestamps set. The
// lookup and insert share a transaction, but without a uniqueness constraint
// on the unordered pair two concurrent callers can still each insert.
func (r *ConversationRepo) StartDirect(ctx context.Context, userID int, otherID int) (models.Conversation, error) {
	if userID == otherID {
		return models.Conversation{}, errors.New("cannot start conversation with self")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var conv models.Conversation
	err = tx.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations
        WHERE type = $1 AND ((participant_one = $2 AND participant_two = $3) OR (participant_one = $3 AND participant_two = $2))`,
		models.ConversationDirect, userID, otherID)
	if err == nil {
		err = tx.Commit()
		return conv, err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, err
	}

	err = tx.QueryRowxContext(ctx, `INSERT INTO conversations (type, participant_one, participant_two)
        VALUES ($1, $2, $3) RETURNING `+conversationColumns,
		models.ConversationDirect, userID, otherID).
		StructScan(&conv)
	if err != nil {
		return models.Conversation{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// CreateGroup creates a group conversation and its members atomically. The
// member set is the creator plus the given ids, deduplicated. Name emptiness
// is left to the caller's UI layer.
func (r *ConversationRepo) CreateGroup(ctx context.Context, creatorID int, name string, memberIDs []int) (models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var conv models.Conversation
	if err = tx.QueryRowxContext(ctx, `INSERT INTO conversations (type, group_name, created_by)
        VALUES ($1, $2, $3) RETURNING `+conversationColumns,
		models.ConversationGroup, name, creatorID).
		StructScan(&conv); err != nil {
		return models.Conversation{}, err
	}

	memberSet := map[int]struct{}{creatorID: {}}
	for _, id := range memberIDs {
		memberSet[id] = struct{}{}
	}
	ids := make([]int, 0, len(memberSet))
	for id := range memberSet {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_members (conversation_id, user_id) VALUES ($1, $2)`, conv.ID, id); err != nil {
			return models.Conversation{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// Get fetches a conversation by id.
func (r *ConversationRepo) Get(ctx context.Context, conversationID int) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListForUser returns every conversation the user participates in: direct
// conversations on either side plus group memberships.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs, `SELECT DISTINCT c.id, c.type, c.participant_one, c.participant_two,
            c.participant_one_read_at, c.participant_two_read_at, c.group_name, c.created_by, c.created_at
        FROM conversations c
        LEFT JOIN conversation_members cm ON cm.conversation_id = c.id
        WHERE c.participant_one = $1 OR c.participant_two = $1 OR cm.user_id = $1
        ORDER BY c.created_at DESC`, userID)
	return convs, err
}

// MemberIDs returns the member ids of a group conversation.
func (r *ConversationRepo) MemberIDs(ctx context.Context, conversationID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM conversation_members WHERE conversation_id=$1 ORDER BY user_id`, conversationID)
	return ids, err
}

// IsMember checks whether a user belongs to the conversation, direct or group.
func (r *ConversationRepo) IsMember(ctx context.Context, conversationID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(
        SELECT 1 FROM conversations WHERE id=$1 AND (participant_one=$2 OR participant_two=$2)
        UNION
        SELECT 1 FROM conversation_members WHERE conversation_id=$1 AND user_id=$2)`, conversationID, userID)
	return exists, err
}

// SetReadTime sets one participant's read timestamp to an explicit instant.
// The role decides which of the two columns is written.
func (r *ConversationRepo) SetReadTime(ctx context.Context, conversationID int, participantOne bool, at time.Time) error {
	if participantOne {
		_, err := r.db.ExecContext(ctx, `UPDATE conversations SET participant_one_read_at = $2 WHERE id=$1`, conversationID, at)
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE conversations SET participant_two_read_at = $2 WHERE id=$1`, conversationID, at)
	return err
}

// MarkReadNow sets one participant's read timestamp to the database clock so
// it orders consistently against message creation times.
func (r *ConversationRepo) MarkReadNow(ctx context.Context, conversationID int, participantOne bool) error {
	if participantOne {
		_, err := r.db.ExecContext(ctx, `UPDATE conversations SET participant_one_read_at = NOW() WHERE id=$1`, conversationID)
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE conversations SET participant_two_read_at = NOW() WHERE id=$1`, conversationID)
	return err
}
