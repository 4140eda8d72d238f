package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"yatube/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// postRow is a post with its author and group columns joined in.
type postRow struct {
	model.Post
	AuthorUsername string  `db:"author_username"`
	GroupTitle     *string `db:"group_title"`
	GroupSlug      *string `db:"group_slug"`
}

func (row postRow) toPost() model.Post {
	p := row.Post
	p.Author = &model.UserSummary{ID: p.AuthorID, Username: row.AuthorUsername}
	if p.GroupID != nil && row.GroupTitle != nil && row.GroupSlug != nil {
		p.Group = &model.GroupSummary{ID: *p.GroupID, Title: *row.GroupTitle, Slug: *row.GroupSlug}
	}
	return p
}

const postSelect = `
	SELECT p.id, p.text, p.author_id, p.group_id, p.image_key, p.created_at, p.updated_at,
		u.username AS author_username,
		g.title AS group_title,
		g.slug AS group_slug,
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN groups g ON g.id = p.group_id
`

// filterClause builds the WHERE clause for f. Placeholders start at $1.
func filterClause(f model.PostFilter) (string, []any) {
	var conds []string
	var args []any

	if f.AuthorID != nil {
		args = append(args, *f.AuthorID)
		conds = append(conds, fmt.Sprintf("p.author_id = $%d", len(args)))
	}
	if f.GroupID != nil {
		args = append(args, *f.GroupID)
		conds = append(conds, fmt.Sprintf("p.group_id = $%d", len(args)))
	}
	if f.FollowerID != nil {
		args = append(args, *f.FollowerID)
		conds = append(conds, fmt.Sprintf("p.author_id IN (SELECT author_id FROM follows WHERE user_id = $%d)", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *postRepository) Create(ctx context.Context, tx *sqlx.Tx, p *model.Post) error {
	query := `
		INSERT INTO posts (text, author_id, group_id, image_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := tx.QueryRowxContext(ctx, query, p.Text, p.AuthorID, p.GroupID, p.ImageKey).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *postRepository) Update(ctx context.Context, tx *sqlx.Tx, p *model.Post) error {
	query := `
		UPDATE posts
		SET text = $1, group_id = $2, image_key = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`
	err := tx.QueryRowxContext(ctx, query, p.Text, p.GroupID, p.ImageKey, p.ID).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByAuthor(ctx context.Context, username string, postID int64) (*model.Post, error) {
	query := postSelect + `WHERE p.id = $1 AND u.username = $2`

	var row postRow
	err := r.db.GetContext(ctx, &row, query, postID, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	post := row.toPost()
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, tx *sqlx.Tx, filter model.PostFilter, limit, offset int) ([]model.Post, error) {
	where, args := filterClause(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf("%s %s ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d",
		postSelect, where, len(args)-1, len(args))

	var rows []postRow
	if err := sqlx.SelectContext(ctx, r.queryer(tx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		posts[i] = row.toPost()
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, tx *sqlx.Tx, filter model.PostFilter) (int, error) {
	where, args := filterClause(filter)
	query := "SELECT COUNT(*) FROM posts p " + where

	var count int
	if err := sqlx.GetContext(ctx, r.queryer(tx), &count, query, args...); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func (r *postRepository) queryer(tx *sqlx.Tx) sqlx.QueryerContext {
	if tx != nil {
		return tx
	}
	return r.db
}
