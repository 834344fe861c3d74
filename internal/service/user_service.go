package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ErrUserNotFound fires when a user lookup misses.
var ErrUserNotFound = errors.New("user not found")

// UserService manages operator and worker accounts.
type UserService struct {
	userRepo *repository.UserRepository
	authSvc  *AuthService
	taskSvc  *TaskService
	log      zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository, authSvc *AuthService, taskSvc *TaskService, log zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		authSvc:  authSvc,
		taskSvc:  taskSvc,
		log:      log.With().Str("component", "user_service").Logger(),
	}
}

// GetByID retrieves one account.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create registers a new account with a hashed password.
func (s *UserService) Create(ctx context.Context, username, password string, role model.UserRole) (*model.User, error) {
	hash, err := s.authSvc.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info().Str("username", username).Str("role", string(role)).Msg("user created")
	return user, nil
}

// Disable revokes a user's session and force-releases any task claims
// they hold.
func (s *UserService) Disable(ctx context.Context, id int) (int, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.authSvc.RevokeSession(ctx, id); err != nil {
		return 0, err
	}
	return s.taskSvc.ResetOwner(ctx, user.Username)
}
