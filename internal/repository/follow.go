package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"yatube/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) GetOrCreate(ctx context.Context, tx *sqlx.Tx, userID, authorID int64) (*model.Follow, error) {
	insert := `
		INSERT INTO follows (user_id, author_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, author_id) DO NOTHING
		RETURNING id, user_id, author_id, created_at
	`
	var f model.Follow
	err := tx.GetContext(ctx, &f, insert, userID, authorID)
	if err == nil {
		return &f, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("create follow: %w", err)
	}

	// Conflict: the edge already exists.
	existing := `SELECT id, user_id, author_id, created_at FROM follows WHERE user_id = $1 AND author_id = $2`
	if err := tx.GetContext(ctx, &f, existing, userID, authorID); err != nil {
		return nil, fmt.Errorf("get existing follow: %w", err)
	}
	return &f, nil
}

func (r *followRepository) Delete(ctx context.Context, tx *sqlx.Tx, userID, authorID int64) error {
	query := `DELETE FROM follows WHERE user_id = $1 AND author_id = $2`
	if _, err := tx.ExecContext(ctx, query, userID, authorID); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE user_id = $1 AND author_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, authorID); err != nil {
		return false, fmt.Errorf("check follow existence: %w", err)
	}
	return exists, nil
}

func (r *followRepository) CountSubscribers(ctx context.Context, authorID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM follows WHERE author_id = $1`, authorID); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return count, nil
}

func (r *followRepository) CountFollowing(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM follows WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("count following: %w", err)
	}
	return count, nil
}
