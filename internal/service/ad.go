package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/adboard/adboard/internal/metrics"
	"github.com/adboard/adboard/internal/model"
	"github.com/adboard/adboard/internal/peer"
	"github.com/adboard/adboard/internal/repository"
)

// AdService handles ad business logic. Every write that sets an owner first
// confirms the owner with the user service.
type AdService struct {
	store   AdStore
	users   UserChecker
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewAdService creates a new AdService.
func NewAdService(store AdStore, users UserChecker, recorder metrics.Recorder, logger *slog.Logger) *AdService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AdService{
		store:   store,
		users:   users,
		metrics: recorder,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateAdInput defines input for creating an ad.
type CreateAdInput struct {
	Title       string
	Description string
	Price       float64
	UserID      int64
}

// UpdateAdInput defines input for overwriting an ad.
type UpdateAdInput struct {
	ID          int64
	Title       string
	Description string
	Price       float64
	UserID      int64
}

// List returns every ad.
func (s *AdService) List(ctx context.Context) ([]*model.Ad, error) {
	return s.store.ListAds(ctx)
}

// Get retrieves an ad by ID.
func (s *AdService) Get(ctx context.Context, id int64) (*model.Ad, error) {
	ad, err := s.store.GetAd(ctx, id)
	if err != nil {
		return nil, mapAdErr(id, err)
	}
	return ad, nil
}

// ListByUser returns the ads owned by userID. An existing user with no ads
// is reported as ErrNoAdsForUser.
func (s *AdService) ListByUser(ctx context.Context, userID int64) ([]*model.Ad, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	owned, err := s.ownedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNoAdsForUser)
	}
	return owned, nil
}

// Create validates and stores a new ad owned by an existing user.
func (s *AdService) Create(ctx context.Context, input CreateAdInput) (*model.Ad, error) {
	if err := validateAd(input.Title, input.Price); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, input.UserID); err != nil {
		return nil, err
	}

	ad := &model.Ad{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Price:       input.Price,
		UserID:      input.UserID,
		CreatedAt:   s.now(),
	}

	if err := s.store.CreateAd(ctx, ad); err != nil {
		return nil, fmt.Errorf("failed to create ad: %w", err)
	}

	s.metrics.AddMutations("ad", "create", 1)
	s.logger.InfoContext(ctx, "ad created", slog.Int64("ad_id", ad.ID), slog.Int64("user_id", ad.UserID))

	return ad, nil
}

// Update overwrites an ad's mutable fields. The owner is re-checked only when
// it changes; CreatedAt is never touched.
func (s *AdService) Update(ctx context.Context, input UpdateAdInput) (*model.Ad, error) {
	if err := validateAd(input.Title, input.Price); err != nil {
		return nil, err
	}

	ad, err := s.store.GetAd(ctx, input.ID)
	if err != nil {
		return nil, mapAdErr(input.ID, err)
	}

	if ad.UserID != input.UserID {
		if err := s.requireUser(ctx, input.UserID); err != nil {
			return nil, err
		}
	}

	ad.Title = strings.TrimSpace(input.Title)
	ad.Description = input.Description
	ad.Price = input.Price
	ad.UserID = input.UserID

	if err := s.store.UpdateAd(ctx, ad); err != nil {
		return nil, mapAdErr(input.ID, err)
	}

	s.metrics.AddMutations("ad", "update", 1)

	return ad, nil
}

// Delete removes one ad.
func (s *AdService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteAd(ctx, id); err != nil {
		return mapAdErr(id, err)
	}
	s.metrics.AddMutations("ad", "delete", 1)
	return nil
}

// DeleteAllByUser removes every ad owned by userID and returns how many were
// deleted. The user service calls this as the first phase of a user delete.
func (s *AdService) DeleteAllByUser(ctx context.Context, userID int64) (int, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return 0, err
	}

	owned, err := s.ownedBy(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(owned) == 0 {
		return 0, fmt.Errorf("user %d: %w", userID, ErrNoAdsForUser)
	}

	ids := make([]int64, 0, len(owned))
	for _, ad := range owned {
		ids = append(ids, ad.ID)
	}

	n, err := s.store.DeleteAds(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete ads of user %d: %w", userID, err)
	}

	s.metrics.AddMutations("ad", "delete", int(n))
	s.logger.InfoContext(ctx, "ads deleted for user", slog.Int64("user_id", userID), slog.Int64("count", n))

	return int(n), nil
}

func (s *AdService) ownedBy(ctx context.Context, userID int64) ([]*model.Ad, error) {
	all, err := s.store.ListAds(ctx)
	if err != nil {
		return nil, err
	}
	return model.FilterByUser(all, userID), nil
}

// requireUser maps the peer's answer to a domain outcome. Peer errors are
// returned as they are so the handler can tell rejection from unavailability.
func (s *AdService) requireUser(ctx context.Context, userID int64) error {
	existence, err := s.users.CheckUser(ctx, userID)
	switch existence {
	case peer.Found:
		return nil
	case peer.NotFound:
		return fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	default:
		if err == nil {
			err = fmt.Errorf("checking user %d: %w", userID, peer.ErrPeerUnavailable)
		}
		s.logger.WarnContext(ctx, "user check failed",
			slog.Int64("user_id", userID),
			slog.String("outcome", existence.String()),
			slog.String("error", err.Error()),
		)
		return err
	}
}

func validateAd(title string, price float64) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return ErrInvalidPrice
	}
	return nil
}

func mapAdErr(id int64, err error) error {
	if errors.Is(err, repository.ErrAdNotFound) {
		return fmt.Errorf("ad %d: %w", id, ErrAdNotFound)
	}
	return err
}
