package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"yatube/internal/model"
)

type groupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, g *model.Group) error {
	query := `
		INSERT INTO groups (title, slug, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, g.Title, g.Slug, g.Description).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.ErrGroupSlugExists
		}
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	query := `SELECT id, title, slug, description, created_at FROM groups WHERE id = $1`

	var g model.Group
	err := r.db.GetContext(ctx, &g, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group by id: %w", err)
	}
	return &g, nil
}

func (r *groupRepository) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	query := `SELECT id, title, slug, description, created_at FROM groups WHERE slug = $1`

	var g model.Group
	err := r.db.GetContext(ctx, &g, query, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group by slug: %w", err)
	}
	return &g, nil
}

func (r *groupRepository) List(ctx context.Context) ([]model.Group, error) {
	query := `SELECT id, title, slug, description, created_at FROM groups ORDER BY title, id`

	groups := []model.Group{}
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}
