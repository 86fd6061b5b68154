package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adboard/adboard/internal/metrics"
	"github.com/adboard/adboard/internal/model"
	"github.com/adboard/adboard/internal/peer"
	"github.com/adboard/adboard/internal/repository"
)

// UserService handles user business logic.
type UserService struct {
	store   UserStore
	ads     AdsRemote
	hasher  PasswordHasher
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, ads AdsRemote, hasher PasswordHasher, recorder metrics.Recorder, logger *slog.Logger) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		store:   store,
		ads:     ads,
		hasher:  hasher,
		metrics: recorder,
		logger:  logger,
	}
}

// CreateUserInput defines input for creating a user.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
}

// UpdateUserInput defines input for overwriting a user. An empty Password
// keeps the stored hash.
type UpdateUserInput struct {
	ID       int64
	Username string
	Email    string
	Password string
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	return s.store.ListUsers(ctx)
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, mapUserErr(id, err)
	}
	return user, nil
}

// Create hashes the password and stores a new user. A user created without
// a password is stored with an empty hash.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	user := &model.User{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.TrimSpace(input.Email),
	}
	if input.Password != "" {
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.AddMutations("user", "create", 1)
	s.logger.InfoContext(ctx, "user created", slog.Int64("user_id", user.ID))

	return user, nil
}

// Update overwrites username, email and, when given, the password.
func (s *UserService) Update(ctx context.Context, input UpdateUserInput) (*model.User, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	user, err := s.store.GetUser(ctx, input.ID)
	if err != nil {
		return nil, mapUserErr(input.ID, err)
	}

	user.Username = strings.TrimSpace(input.Username)
	user.Email = strings.TrimSpace(input.Email)
	if input.Password != "" {
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, mapUserErr(input.ID, err)
	}

	s.metrics.AddMutations("user", "update", 1)

	return user, nil
}

// Delete removes a user in two phases: the user's ads are deleted in the ads
// service first, then the user row. If the first phase fails the user is left
// untouched. Nothing is compensated if the second phase fails.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.cascadeAds(ctx, id); err != nil {
		return err
	}
	return s.removeUser(ctx, id)
}

// cascadeAds is phase one. A NotFound answer means there was nothing to
// delete.
func (s *UserService) cascadeAds(ctx context.Context, id int64) error {
	existence, err := s.ads.DeleteAdsByUser(ctx, id)
	switch existence {
	case peer.Found:
		s.metrics.IncCascade(metrics.CascadeDeleted)
		return nil
	case peer.NotFound:
		s.metrics.IncCascade(metrics.CascadeNoop)
		s.logger.WarnContext(ctx, "no ads to delete for user", slog.Int64("user_id", id))
		return nil
	default:
		s.metrics.IncCascade(metrics.CascadeFailed)
		if err == nil {
			err = peer.ErrPeerUnavailable
		}
		s.logger.ErrorContext(ctx, "cascade delete failed, user kept",
			slog.Int64("user_id", id),
			slog.String("outcome", existence.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("user %d: %w: %w", id, ErrCascadeFailed, err)
	}
}

// removeUser is phase two.
func (s *UserService) removeUser(ctx context.Context, id int64) error {
	if _, err := s.store.GetUser(ctx, id); err != nil {
		return mapUserErr(id, err)
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return mapUserErr(id, err)
	}

	s.metrics.AddMutations("user", "delete", 1)
	s.logger.InfoContext(ctx, "user deleted", slog.Int64("user_id", id))

	return nil
}

// AdsByUser returns the user's ads as served by the ads service. When the ads
// service has nothing for the user the result is an empty list, not an error.
func (s *UserService) AdsByUser(ctx context.Context, id int64) ([]json.RawMessage, error) {
	ads, existence, err := s.ads.ListAdsByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing ads of user %d: %w", id, err)
	}
	if existence == peer.NotFound || ads == nil {
		return []json.RawMessage{}, nil
	}
	return ads, nil
}

func mapUserErr(id int64, err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}
	return err
}
