package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"yatube/internal/metrics"
	"yatube/internal/model"
	"yatube/internal/repository"
)

type PostService struct {
	tx           repository.Transactor
	postRepo     repository.PostRepository
	groupRepo    repository.GroupRepository
	commentRepo  repository.CommentRepository
	images       ImageStore
	janitor      ImageJanitor // optional
	maxImageSize int64
	logger       *zap.Logger
}

// ImageJanitor queues removal of images no post references any more.
type ImageJanitor interface {
	PublishImageDiscarded(ctx context.Context, key string, postID int64) (string, error)
}

func NewPostService(
	tx repository.Transactor,
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	commentRepo repository.CommentRepository,
	images ImageStore,
	maxImageSize int64,
	logger *zap.Logger,
) *PostService {
	if maxImageSize <= 0 {
		maxImageSize = model.DefaultMaxImageSizeBytes
	}
	return &PostService{
		tx:           tx,
		postRepo:     postRepo,
		groupRepo:    groupRepo,
		commentRepo:  commentRepo,
		images:       images,
		maxImageSize: maxImageSize,
		logger:       logger.Named("post_service"),
	}
}

// SetImageJanitor hands image removal to background workers. Without one,
// images are deleted inline.
func (s *PostService) SetImageJanitor(j ImageJanitor) {
	s.janitor = j
}

// Create publishes a post authored by the given identity.
func (s *PostService) Create(ctx context.Context, author *model.Identity, in model.PostInput) (post *model.Post, err error) {
	defer func() { metrics.ObserveMutation("post_create", err) }()

	if author == nil {
		return nil, model.ErrIdentityRequired
	}

	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	imageKey, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	post = &model.Post{
		Text:     in.Text,
		AuthorID: author.ID,
		GroupID:  in.GroupID,
		ImageKey: imageKey,
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.postRepo.Create(ctx, tx, post)
	})
	if err != nil {
		s.discardImage(ctx, imageKey, 0)
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.Info("post created",
		zap.Int64("post_id", post.ID),
		zap.Int64("author_id", author.ID),
		zap.Bool("has_image", imageKey != nil),
	)

	return s.reload(ctx, author.Username, post.ID)
}

// Update edits a post. Only its author may do so, addressing it under their own
// username. Without a new image the stored one is kept unless ClearImage is set.
func (s *PostService) Update(ctx context.Context, requester *model.Identity, username string, postID int64, in model.PostInput) (post *model.Post, err error) {
	defer func() { metrics.ObserveMutation("post_update", err) }()

	existing, err := s.Authorize(ctx, requester, username, postID)
	if err != nil {
		return nil, err
	}

	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	newKey, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Text = in.Text
	updated.GroupID = in.GroupID
	switch {
	case newKey != nil:
		updated.ImageKey = newKey
	case in.ClearImage:
		updated.ImageKey = nil
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.postRepo.Update(ctx, tx, &updated)
	})
	if err != nil {
		s.discardImage(ctx, newKey, postID)
		return nil, fmt.Errorf("update post: %w", err)
	}

	if existing.ImageKey != nil && (updated.ImageKey == nil || *updated.ImageKey != *existing.ImageKey) {
		s.discardImage(ctx, existing.ImageKey, postID)
	}

	s.logger.Info("post updated", zap.Int64("post_id", postID), zap.Int64("author_id", requester.ID))
	return s.reload(ctx, username, postID)
}

// Authorize returns the post addressed by username and postID when requester
// may edit it. It looks at nothing but identities, so callers can run it before
// reading any form input.
func (s *PostService) Authorize(ctx context.Context, requester *model.Identity, username string, postID int64) (*model.Post, error) {
	if requester == nil {
		return nil, model.ErrIdentityRequired
	}

	existing, err := s.postRepo.GetByAuthor(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	if requester.Username != username || existing.AuthorID != requester.ID {
		return nil, model.ErrNotPostAuthor
	}
	return existing, nil
}

// Get returns a post with its comments, oldest first, and the author's post count.
func (s *PostService) Get(ctx context.Context, username string, postID int64) (*model.PostDetail, error) {
	post, err := s.postRepo.GetByAuthor(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	post.ImageURL = imageURL(s.images, post.ImageKey)

	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("get post comments: %w", err)
	}

	count, err := s.postRepo.Count(ctx, nil, model.PostFilter{AuthorID: &post.AuthorID})
	if err != nil {
		return nil, fmt.Errorf("count author posts: %w", err)
	}

	return &model.PostDetail{
		Post:            *post,
		Author:          *post.Author,
		AuthorPostCount: count,
		Comments:        comments,
	}, nil
}

// validate collects every field failure before anything is stored.
func (s *PostService) validate(ctx context.Context, in *model.PostInput) error {
	verr := in.Validate()

	if in.GroupID != nil {
		_, err := s.groupRepo.GetByID(ctx, *in.GroupID)
		switch {
		case errors.Is(err, model.ErrGroupNotFound):
			verr.Add("group", model.MsgInvalidGroup)
		case err != nil:
			return fmt.Errorf("check group: %w", err)
		}
	}

	if in.Image != nil {
		switch err := CheckImage(in.Image, s.maxImageSize); {
		case errors.Is(err, model.ErrImageTooLarge):
			verr.Add("image", model.MsgImageTooLarge)
		case errors.Is(err, model.ErrInvalidImage):
			verr.Add("image", model.MsgInvalidImage)
		}
	}

	return verr.OrNil()
}

func (s *PostService) saveImage(ctx context.Context, img *model.ImageUpload) (*string, error) {
	if img == nil {
		return nil, nil
	}
	if s.images == nil {
		return nil, errors.New("save image: no image store configured")
	}
	key, err := s.images.Save(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}
	return &key, nil
}

// discardImage removes a blob no post references. Failures leave an orphan
// object behind and are only logged.
func (s *PostService) discardImage(ctx context.Context, key *string, postID int64) {
	if key == nil || s.images == nil {
		return
	}
	if s.janitor != nil {
		_, err := s.janitor.PublishImageDiscarded(ctx, *key, postID)
		if err == nil {
			return
		}
		s.logger.Warn("failed to queue image removal", zap.String("key", *key), zap.Error(err))
	}
	if err := s.images.Delete(ctx, *key); err != nil {
		s.logger.Warn("failed to delete image", zap.String("key", *key), zap.Error(err))
	}
}

func (s *PostService) reload(ctx context.Context, username string, postID int64) (*model.Post, error) {
	post, err := s.postRepo.GetByAuthor(ctx, username, postID)
	if err != nil {
		return nil, fmt.Errorf("reload post: %w", err)
	}
	post.ImageURL = imageURL(s.images, post.ImageKey)
	return post, nil
}
