package booking

import (
	"context"
	"errors"
)

var (
	ErrSlotNotFound        = errors.New("no such slot for this clinic and time")
	ErrSlotTaken           = errors.New("slot already has a reservation")
	ErrReservationNotFound = errors.New("reservation not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// AvailableClinics returns the clinics that still have an open slot at
	// slotTime: declared slots minus slots matched by an existing
	// reservation, joined back to clinic metadata.
	AvailableClinics(ctx context.Context, slotTime string) ([]ClinicSummary, error)

	// SlotAvailability is the same anti-join narrowed to one clinic. It
	// returns nil (not an error) when the slot is taken or was never
	// declared.
	SlotAvailability(ctx context.Context, clinicID, slotTime string) (*ClinicSummary, error)

	// CreateReservation inserts the reservation in a single transaction.
	// Returns ErrSlotNotFound when the slot was never declared and
	// ErrSlotTaken when another reservation already holds it.
	CreateReservation(ctx context.Context, req NewReservation) (*Reservation, error)

	// DeleteReservation removes the matching reservation; ErrReservationNotFound
	// when nothing matched.
	DeleteReservation(ctx context.Context, userID, clinicID, slotTime string) error

	ReservationsByUser(ctx context.Context, userID string) ([]UserReservation, error)

	// ClinicRoster lists a clinic's booked visits whose slot time starts
	// with dayPrefix, ordered by time.
	ClinicRoster(ctx context.Context, clinicID, dayPrefix string) ([]RosterEntry, error)

	// Event logging
	InsertEvent(ctx context.Context, ev Event) error

	// Retention worker
	DeleteBefore(ctx context.Context, cutoff string) (slots, reservations int64, err error)
}
