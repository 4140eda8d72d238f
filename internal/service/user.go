package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"yatube/internal/model"
	"yatube/internal/repository"
)

// UserService mirrors identities asserted by the identity provider into the
// local users table.
type UserService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger.Named("user_service")}
}

// Ensure records the identity so posts, comments and follows can reference it.
func (s *UserService) Ensure(ctx context.Context, identity *model.Identity) (*model.User, error) {
	if identity == nil {
		return nil, model.ErrIdentityRequired
	}
	username := strings.TrimSpace(identity.Username)
	if identity.ID <= 0 || username == "" {
		return nil, fmt.Errorf("ensure user: invalid identity %d/%q", identity.ID, identity.Username)
	}

	user, err := s.userRepo.Ensure(ctx, identity.ID, username)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}
