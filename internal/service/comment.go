package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"yatube/internal/metrics"
	"yatube/internal/model"
	"yatube/internal/repository"
)

type CommentService struct {
	tx          repository.Transactor
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	logger      *zap.Logger
}

func NewCommentService(
	tx repository.Transactor,
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		tx:          tx,
		commentRepo: commentRepo,
		postRepo:    postRepo,
		logger:      logger.Named("comment_service"),
	}
}

// Create adds a comment to the post published by username under postID.
func (s *CommentService) Create(ctx context.Context, author *model.Identity, username string, postID int64, text string) (comment *model.Comment, err error) {
	defer func() { metrics.ObserveMutation("comment_create", err) }()

	if author == nil {
		return nil, model.ErrIdentityRequired
	}

	post, err := s.postRepo.GetByAuthor(ctx, username, postID)
	if err != nil {
		return nil, err
	}

	in := model.CommentInput{Text: text}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	comment = &model.Comment{PostID: post.ID, AuthorID: author.ID, Text: in.Text}
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.commentRepo.Create(ctx, tx, comment)
	})
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.Author = &model.UserSummary{ID: author.ID, Username: author.Username}

	s.logger.Info("comment created",
		zap.Int64("comment_id", comment.ID),
		zap.Int64("post_id", post.ID),
		zap.Int64("author_id", author.ID),
	)
	return comment, nil
}
