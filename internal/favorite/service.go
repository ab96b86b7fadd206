package favorite

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wy-vetapp/clinic-booking/internal/cache"
)

// ErrNoFavorites reports an empty favorites list as a distinct not-found
// condition.
var ErrNoFavorites = errors.New("no favorite clinics")

func listKey(userID string) string {
	return cache.Key("favorite_clinics", map[string]string{"user_id": userID})
}

type Service struct {
	repo   Repository
	store  *cache.Store
	logger *zap.Logger
}

func NewService(repo Repository, store *cache.Store, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		store:  store,
		logger: logger,
	}
}

// ListByUser returns the user's favorite clinics, cached per user.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Favorite, error) {
	result, err := cache.GetOrCompute(ctx, s.store, listKey(userID), func(ctx context.Context) ([]Favorite, error) {
		return s.repo.ListByUser(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("list favorites for user %s: %w", userID, err)
	}

	if len(result) == 0 {
		return nil, ErrNoFavorites
	}
	return result, nil
}

// Add puts a clinic on the user's favorites list and evicts the cached
// list so the addition is visible immediately.
func (s *Service) Add(ctx context.Context, userID, clinicID string) error {
	err := s.repo.Add(ctx, userID, clinicID)
	if err != nil {
		if errors.Is(err, ErrClinicNotFound) || errors.Is(err, ErrAlreadyFavorite) {
			return err
		}
		return fmt.Errorf("add favorite: %w", err)
	}

	s.store.Invalidate(ctx, listKey(userID))
	return nil
}

// Remove takes a clinic off the list, symmetric with Add.
func (s *Service) Remove(ctx context.Context, userID, clinicID string) error {
	err := s.repo.Remove(ctx, userID, clinicID)
	if err != nil {
		if errors.Is(err, ErrFavoriteNotFound) {
			return err
		}
		return fmt.Errorf("remove favorite: %w", err)
	}

	s.store.Invalidate(ctx, listKey(userID))
	return nil
}

func (s *Service) Exists(ctx context.Context, userID, clinicID string) (bool, error) {
	ok, err := s.repo.Exists(ctx, userID, clinicID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return ok, nil
}
