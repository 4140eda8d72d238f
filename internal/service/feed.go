package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"yatube/internal/metrics"
	"yatube/internal/model"
	"yatube/internal/repository"
)

// FeedService composes paginated post listings, newest first.
type FeedService struct {
	postRepo      repository.PostRepository
	groupRepo     repository.GroupRepository
	userRepo      repository.UserRepository
	follows       *FollowService
	tx            repository.Transactor
	images        ImageStore
	indexCacheTTL time.Duration
	logger        *zap.Logger
}

func NewFeedService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	follows *FollowService,
	tx repository.Transactor,
	images ImageStore,
	indexCacheTTL time.Duration,
	logger *zap.Logger,
) *FeedService {
	if indexCacheTTL <= 0 {
		indexCacheTTL = model.DefaultIndexCacheTTL
	}
	return &FeedService{
		postRepo:      postRepo,
		groupRepo:     groupRepo,
		userRepo:      userRepo,
		follows:       follows,
		tx:            tx,
		images:        images,
		indexCacheTTL: indexCacheTTL,
		logger:        logger.Named("feed_service"),
	}
}

// Global lists every post.
func (s *FeedService) Global(ctx context.Context, rawPage string) (*model.PostPage, error) {
	return s.page(ctx, "global", model.PostFilter{}, rawPage)
}

// Group lists the posts of the group with the given slug.
func (s *FeedService) Group(ctx context.Context, slug, rawPage string) (*model.GroupFeed, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	page, err := s.page(ctx, "group", model.PostFilter{GroupID: &group.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	return &model.GroupFeed{Group: *group, PostPage: *page}, nil
}

// Profile lists one author's posts along with the author's counters.
// requester may be nil.
func (s *FeedService) Profile(ctx context.Context, username, rawPage string, requester *model.Identity) (*model.ProfileFeed, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	page, err := s.page(ctx, "profile", model.PostFilter{AuthorID: &author.ID}, rawPage)
	if err != nil {
		return nil, err
	}

	summary, err := s.follows.summaryFor(ctx, author.ID, requester)
	if err != nil {
		return nil, fmt.Errorf("profile subscriptions: %w", err)
	}

	return &model.ProfileFeed{
		Author:        author.Summary(),
		PostCount:     page.Page.Count,
		Subscriptions: *summary,
		PostPage:      *page,
	}, nil
}

// Following lists posts by every author the identity follows.
func (s *FeedService) Following(ctx context.Context, identity *model.Identity, rawPage string) (*model.PostPage, error) {
	if identity == nil {
		return nil, model.ErrIdentityRequired
	}
	return s.page(ctx, "following", model.PostFilter{FollowerID: &identity.ID}, rawPage)
}

// IndexCachePolicy returns how the first page of the global feed may be
// cached, or nil when rawPage addresses any other page.
func (s *FeedService) IndexCachePolicy(rawPage string) *model.CachePolicy {
	if !model.IsFirstPageRequest(rawPage) {
		return nil
	}
	return &model.CachePolicy{
		Key:          model.IndexPageCacheKey,
		TTL:          s.indexCacheTTL,
		Invalidation: model.InvalidateOnExpiry,
	}
}

func (s *FeedService) page(ctx context.Context, feed string, filter model.PostFilter, rawPage string) (*model.PostPage, error) {
	defer metrics.ObserveFeed(feed, time.Now())

	var (
		count     int
		number    int
		paginator model.Paginator
		posts     []model.Post
	)
	// The count decides which page exists, so it has to agree with the rows.
	err := s.tx.WithinReadTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		count, err = s.postRepo.Count(ctx, tx, filter)
		if err != nil {
			return err
		}

		paginator = model.NewPaginator(count, model.PostsPerPage)
		number = paginator.Resolve(rawPage)

		posts, err = s.postRepo.List(ctx, tx, filter, paginator.PerPage, paginator.Offset(number))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s feed: %w", feed, err)
	}
	for i := range posts {
		posts[i].ImageURL = imageURL(s.images, posts[i].ImageKey)
	}
	if posts == nil {
		posts = []model.Post{}
	}

	s.logger.Debug("feed page",
		zap.String("feed", feed),
		zap.Int("page", number),
		zap.Int("count", count),
	)

	return &model.PostPage{Posts: posts, Page: paginator.Page(number)}, nil
}
