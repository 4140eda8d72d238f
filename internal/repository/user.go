package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"yatube/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Ensure upserts the identity by id. Usernames belong to the identity
// provider, so a stale row still holding username under another id is parked
// as "<username>#<id>" until that identity shows up with its new name.
func (r *userRepository) Ensure(ctx context.Context, id int64, username string) (*model.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ensure user: begin: %w", err)
	}
	defer tx.Rollback()

	release := `
		UPDATE users SET username = LEFT(username, 120) || '#' || id
		WHERE username = $1 AND id <> $2
	`
	if _, err := tx.ExecContext(ctx, release, username, id); err != nil {
		return nil, fmt.Errorf("ensure user: release username: %w", err)
	}

	upsert := `
		INSERT INTO users (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, username, created_at
	`
	var user model.User
	if err := tx.GetContext(ctx, &user, upsert, id, username); err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ensure user: commit: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT id, username, created_at FROM users WHERE id = $1`

	var user model.User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT id, username, created_at FROM users WHERE username = $1`

	var user model.User
	err := r.db.GetContext(ctx, &user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &user, nil
}
