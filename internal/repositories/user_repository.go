package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/identity"
	"messenger-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts user persistence and presence state.
type UserRepository interface {
	ResolvePrincipal(ctx context.Context, principal identity.Principal) (models.User, error)
	GetUser(ctx context.Context, userID int) (models.User, error)
	BulkUsers(ctx context.Context, ids []int) ([]models.User, error)
	Heartbeat(ctx context.Context, userID int) error
	ListOnlineFlagged(ctx context.Context) ([]models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, subject, name, email, avatar_url, is_online, last_seen, created_at`

// ResolvePrincipal maps an authenticated principal to the internal user row,
// creating it on first contact and refreshing the profile fields otherwise.
func (r *UserRepo) ResolvePrincipal(ctx context.Context, principal identity.Principal) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users (subject, name, email, avatar_url)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (subject) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, avatar_url = EXCLUDED.avatar_url
        RETURNING `+userColumns,
		principal.Subject, principal.Name, principal.Email, principal.AvatarURL).
		StructScan(&user)
	return user, err
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// BulkUsers fetches multiple users in one query. Unknown ids are skipped.
func (r *UserRepo) BulkUsers(ctx context.Context, ids []int) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var users []models.User
	err = r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...)
	return users, err
}

// Heartbeat marks the user online and refreshes last_seen.
func (r *UserRepo) Heartbeat(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online = TRUE, last_seen = NOW() WHERE id=$1`, userID)
	return err
}

// ListOnlineFlagged returns users whose is_online flag is still set. Callers
// apply the heartbeat window at read time; users who stopped sending
// heartbeats age out without any explicit went-offline transition.
func (r *UserRepo) ListOnlineFlagged(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE is_online = TRUE AND last_seen IS NOT NULL`)
	return users, err
}
