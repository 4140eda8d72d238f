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

type FollowService struct {
	tx         repository.Transactor
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	logger     *zap.Logger
}

func NewFollowService(
	tx repository.Transactor,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *FollowService {
	return &FollowService{
		tx:         tx,
		followRepo: followRepo,
		userRepo:   userRepo,
		logger:     logger.Named("follow_service"),
	}
}

// Follow subscribes user to the author named targetUsername and returns the
// edge, existing or new. Following oneself does nothing and returns nil.
func (s *FollowService) Follow(ctx context.Context, user *model.Identity, targetUsername string) (follow *model.Follow, err error) {
	defer func() { metrics.ObserveMutation("follow", err) }()

	if user == nil {
		return nil, model.ErrIdentityRequired
	}

	author, err := s.userRepo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	if author.ID == user.ID {
		return nil, nil
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		follow, err = s.followRepo.GetOrCreate(ctx, tx, user.ID, author.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("follow: %w", err)
	}

	s.logger.Info("followed", zap.Int64("user_id", user.ID), zap.Int64("author_id", author.ID))
	return follow, nil
}

// Unfollow removes the subscription if there is one.
func (s *FollowService) Unfollow(ctx context.Context, user *model.Identity, targetUsername string) (err error) {
	defer func() { metrics.ObserveMutation("unfollow", err) }()

	if user == nil {
		return model.ErrIdentityRequired
	}

	author, err := s.userRepo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}
	if author.ID == user.ID {
		return nil
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.followRepo.Delete(ctx, tx, user.ID, author.ID)
	})
	if err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}

	s.logger.Info("unfollowed", zap.Int64("user_id", user.ID), zap.Int64("author_id", author.ID))
	return nil
}

// Summary describes targetUsername's subscriptions as seen by requester,
// which may be nil for anonymous visitors.
func (s *FollowService) Summary(ctx context.Context, targetUsername string, requester *model.Identity) (*model.SubscriptionSummary, error) {
	author, err := s.userRepo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	return s.summaryFor(ctx, author.ID, requester)
}

func (s *FollowService) summaryFor(ctx context.Context, authorID int64, requester *model.Identity) (*model.SubscriptionSummary, error) {
	var summary model.SubscriptionSummary
	var err error

	if summary.SubscriberCount, err = s.followRepo.CountSubscribers(ctx, authorID); err != nil {
		return nil, err
	}
	if summary.FollowingCount, err = s.followRepo.CountFollowing(ctx, authorID); err != nil {
		return nil, err
	}
	if requester != nil && requester.ID != authorID {
		if summary.IsFollowing, err = s.followRepo.Exists(ctx, requester.ID, authorID); err != nil {
			return nil, err
		}
	}
	return &summary, nil
}
