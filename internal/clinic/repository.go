package clinic

import (
	"context"
	"errors"
)

var ErrClinicNotFound = errors.New("clinic not found")

type Repository interface {
	List(ctx context.Context) ([]Clinic, error)
	// Search matches name or address against term (substring).
	Search(ctx context.Context, term string) ([]Clinic, error)
	GetByID(ctx context.Context, id string) (*Clinic, error)
	Cards(ctx context.Context) ([]Card, error)
	Update(ctx context.Context, id string, upd ProfileUpdate) error
}
