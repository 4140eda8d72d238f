package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"yatube/internal/metrics"
	"yatube/internal/model"
	"yatube/internal/repository"
)

type GroupService struct {
	groupRepo repository.GroupRepository
	logger    *zap.Logger
}

func NewGroupService(groupRepo repository.GroupRepository, logger *zap.Logger) *GroupService {
	return &GroupService{groupRepo: groupRepo, logger: logger.Named("group_service")}
}

// Create adds a group. Groups are administrative; there is no public route for it.
func (s *GroupService) Create(ctx context.Context, in model.GroupInput) (group *model.Group, err error) {
	defer func() { metrics.ObserveMutation("group_create", err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	group = &model.Group{Title: in.Title, Slug: in.Slug, Description: in.Description}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		if errors.Is(err, model.ErrGroupSlugExists) {
			return nil, model.FieldError("slug", "group with this slug already exists")
		}
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.logger.Info("group created", zap.Int64("group_id", group.ID), zap.String("slug", group.Slug))
	return group, nil
}

func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	return s.groupRepo.GetBySlug(ctx, slug)
}

func (s *GroupService) List(ctx context.Context) ([]model.Group, error) {
	return s.groupRepo.List(ctx)
}
