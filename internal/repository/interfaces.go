package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"yatube/internal/model"
)

// Transactor runs fn inside a single database transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	// WithinReadTx runs fn in a read-only transaction whose reads all see one
	// snapshot.
	WithinReadTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type UserRepository interface {
	// Ensure inserts the user or refreshes its username, keyed by id.
	Ensure(ctx context.Context, id int64, username string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id int64) (*model.Group, error)
	GetBySlug(ctx context.Context, slug string) (*model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
}

type PostRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, post *model.Post) error
	// Update rewrites text, group and image. Author and created_at are left alone.
	Update(ctx context.Context, tx *sqlx.Tx, post *model.Post) error
	// GetByAuthor returns the post only when it belongs to the named author.
	GetByAuthor(ctx context.Context, username string, postID int64) (*model.Post, error)
	// List returns posts newest first with author and group joined. A nil tx
	// reads outside any transaction, as does Count.
	List(ctx context.Context, tx *sqlx.Tx, filter model.PostFilter, limit, offset int) ([]model.Post, error)
	Count(ctx context.Context, tx *sqlx.Tx, filter model.PostFilter) (int, error)
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) error
	// ListByPost returns every comment of the post, oldest first.
	ListByPost(ctx context.Context, postID int64) ([]model.Comment, error)
}

type FollowRepository interface {
	// GetOrCreate returns the existing edge or inserts a new one.
	GetOrCreate(ctx context.Context, tx *sqlx.Tx, userID, authorID int64) (*model.Follow, error)
	// Delete removes the edge if present. A missing edge is not an error.
	Delete(ctx context.Context, tx *sqlx.Tx, userID, authorID int64) error
	Exists(ctx context.Context, userID, authorID int64) (bool, error)
	CountSubscribers(ctx context.Context, authorID int64) (int, error)
	CountFollowing(ctx context.Context, userID int64) (int, error)
}
