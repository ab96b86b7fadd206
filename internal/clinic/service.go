package clinic

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wy-vetapp/clinic-booking/internal/cache"
)

func listKey() string {
	return cache.Key("clinic_list", nil)
}

func searchKey(term string) string {
	return cache.Key("clinic_search", map[string]string{"search": term})
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

// List returns the full clinic directory, cached under a single key.
func (s *Service) List(ctx context.Context) ([]Clinic, error) {
	result, err := cache.GetOrCompute(ctx, s.store, listKey(), func(ctx context.Context) ([]Clinic, error) {
		return s.repo.List(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list clinics: %w", err)
	}
	return result, nil
}

// Search returns clinics whose name or address contains term, cached per
// search term.
func (s *Service) Search(ctx context.Context, term string) ([]Clinic, error) {
	result, err := cache.GetOrCompute(ctx, s.store, searchKey(term), func(ctx context.Context) ([]Clinic, error) {
		return s.repo.Search(ctx, term)
	})
	if err != nil {
		return nil, fmt.Errorf("search clinics: %w", err)
	}
	return result, nil
}

func (s *Service) Detail(ctx context.Context, id string) (*Clinic, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrClinicNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("clinic detail: %w", err)
	}
	return c, nil
}

func (s *Service) Cards(ctx context.Context) ([]Card, error) {
	cards, err := s.repo.Cards(ctx)
	if err != nil {
		return nil, fmt.Errorf("clinic cards: %w", err)
	}
	return cards, nil
}

// UpdateProfile replaces a clinic's display profile and evicts the cached
// directory listing. Per-term search entries cannot be enumerated, so they
// age out within the TTL instead; profile metadata has no exclusivity
// invariant riding on it.
func (s *Service) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) error {
	err := s.repo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, ErrClinicNotFound) {
			return err
		}
		return fmt.Errorf("update clinic profile: %w", err)
	}

	s.store.Invalidate(ctx, listKey())
	return nil
}
