package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wy-vetapp/clinic-booking/internal/cache"
)

const (
	EventReservationCreated   = "RESERVATION_CREATED"
	EventReservationCancelled = "RESERVATION_CANCELLED"
)

// ErrNoAvailableClinics reports an empty availability result. It is a
// documented not-found condition, distinct from any backend failure.
var ErrNoAvailableClinics = errors.New("no clinic has an open slot at this time")

type Service struct {
	repo   Repository
	store  *cache.Store
	inv    *Invalidator
	logger *zap.Logger
}

func NewService(repo Repository, store *cache.Store, inv *Invalidator, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		store:  store,
		inv:    inv,
		logger: logger,
	}
}

// AvailableClinics returns the clinics with an open slot at slotTime,
// served through the read-through cache. The empty result is cached like
// any other (it is a valid derived fact, invalidated by the next write for
// that time) and reported as ErrNoAvailableClinics on every call that sees
// it.
func (s *Service) AvailableClinics(ctx context.Context, slotTime string) ([]ClinicSummary, error) {
	key := availableClinicsKey(slotTime)

	result, err := cache.GetOrCompute(ctx, s.store, key, func(ctx context.Context) ([]ClinicSummary, error) {
		return s.repo.AvailableClinics(ctx, slotTime)
	})
	if err != nil {
		return nil, fmt.Errorf("available clinics at %s: %w", slotTime, err)
	}

	if len(result) == 0 {
		return nil, ErrNoAvailableClinics
	}
	return result, nil
}

// SlotAvailability reports whether one specific (clinic, time) slot is
// still free. A nil summary means taken or nonexistent; that answer is
// cached too, under the same TTL and the same invalidation triggers as
// AvailableClinics, so the two views cannot disagree for longer than one
// TTL window.
func (s *Service) SlotAvailability(ctx context.Context, clinicID, slotTime string) (*ClinicSummary, error) {
	key := slotCheckKey(clinicID, slotTime)

	result, err := cache.GetOrCompute(ctx, s.store, key, func(ctx context.Context) (*ClinicSummary, error) {
		return s.repo.SlotAvailability(ctx, clinicID, slotTime)
	})
	if err != nil {
		return nil, fmt.Errorf("slot availability %s@%s: %w", clinicID, slotTime, err)
	}
	return result, nil
}

// CreateReservation books a slot. Exclusivity is enforced entirely by the
// repository's transactional constraint-checked insert; by the time the
// invalidator runs, the reservation is already the committed source of
// truth. Invalidation happens before returning so a post-acknowledge read
// cannot be served a pre-write cache entry.
func (s *Service) CreateReservation(ctx context.Context, req NewReservation) (*Reservation, error) {
	res, err := s.repo.CreateReservation(ctx, req)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) || errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.logEvent(ctx, &res.ID, EventReservationCreated, map[string]any{
		"user_id":   req.UserID,
		"clinic_id": req.ClinicID,
		"time":      req.SlotTime,
		"pet_id":    req.PetID,
	})

	s.inv.ReservationChanged(ctx, req.UserID, req.ClinicID, req.SlotTime)

	return res, nil
}

// CancelReservation frees a slot. Cancelling a reservation that does not
// exist returns ErrReservationNotFound and touches neither store nor cache.
func (s *Service) CancelReservation(ctx context.Context, userID, clinicID, slotTime string) error {
	err := s.repo.DeleteReservation(ctx, userID, clinicID, slotTime)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return err
		}
		return fmt.Errorf("cancel reservation: %w", err)
	}

	s.logEvent(ctx, nil, EventReservationCancelled, map[string]any{
		"user_id":   userID,
		"clinic_id": clinicID,
		"time":      slotTime,
	})

	s.inv.ReservationChanged(ctx, userID, clinicID, slotTime)

	return nil
}

// ReservationsByUser returns a user's bookings, cached per user and
// invalidated whenever that user books or cancels.
func (s *Service) ReservationsByUser(ctx context.Context, userID string) ([]UserReservation, error) {
	key := userReservationsKey(userID)

	result, err := cache.GetOrCompute(ctx, s.store, key, func(ctx context.Context) ([]UserReservation, error) {
		return s.repo.ReservationsByUser(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("list reservations for user %s: %w", userID, err)
	}
	return result, nil
}

// ClinicRoster returns a clinic's booked visits for the day of timeParam,
// cached per (clinic, day).
func (s *Service) ClinicRoster(ctx context.Context, clinicID, timeParam string) ([]RosterEntry, error) {
	day := dayPrefix(timeParam)
	key := clinicRosterKey(clinicID, day)

	result, err := cache.GetOrCompute(ctx, s.store, key, func(ctx context.Context) ([]RosterEntry, error) {
		return s.repo.ClinicRoster(ctx, clinicID, day)
	})
	if err != nil {
		return nil, fmt.Errorf("clinic roster %s on %s: %w", clinicID, day, err)
	}
	return result, nil
}

// PruneBefore deletes slots and reservations whose time sorts before
// cutoff. Called by the retention worker.
func (s *Service) PruneBefore(ctx context.Context, cutoff string) (int64, int64, error) {
	slots, reservations, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("prune before %s: %w", cutoff, err)
	}
	return slots, reservations, nil
}

func (s *Service) logEvent(ctx context.Context, reservationID *uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal event payload",
			zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	ev := Event{
		EventType:     eventType,
		ReservationID: reservationID,
		Payload:       data,
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("failed to insert booking event",
			zap.String("event_type", eventType), zap.Error(err))
	}
}
