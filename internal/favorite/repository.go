package favorite

import (
	"context"
	"errors"
)

var (
	ErrClinicNotFound   = errors.New("clinic not found")
	ErrAlreadyFavorite  = errors.New("clinic is already a favorite")
	ErrFavoriteNotFound = errors.New("clinic is not in favorites")
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Favorite, error)
	// Add copies the clinic's display fields into the favorites table.
	// ErrClinicNotFound when the clinic does not exist, ErrAlreadyFavorite
	// on a duplicate.
	Add(ctx context.Context, userID, clinicID string) error
	Remove(ctx context.Context, userID, clinicID string) error
	Exists(ctx context.Context, userID, clinicID string) (bool, error)
}
