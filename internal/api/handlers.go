package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wy-vetapp/clinic-booking/internal/booking"
)

// BookingService is the slice of the booking service the HTTP layer needs.
type BookingService interface {
	AvailableClinics(ctx context.Context, slotTime string) ([]booking.ClinicSummary, error)
	SlotAvailability(ctx context.Context, clinicID, slotTime string) (*booking.ClinicSummary, error)
	CreateReservation(ctx context.Context, req booking.NewReservation) (*booking.Reservation, error)
	CancelReservation(ctx context.Context, userID, clinicID, slotTime string) error
	ReservationsByUser(ctx context.Context, userID string) ([]booking.UserReservation, error)
	ClinicRoster(ctx context.Context, clinicID, timeParam string) ([]booking.RosterEntry, error)
}

func availableClinicsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotTime := r.URL.Query().Get("time")
		if slotTime == "" {
			writeError(w, http.StatusBadRequest, "missing_time", "time query parameter is required")
			return
		}

		clinics, err := svc.AvailableClinics(r.Context(), slotTime)
		if err != nil {
			if errors.Is(err, booking.ErrNoAvailableClinics) {
				writeError(w, http.StatusNotFound, "no_available_clinics", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, AvailableClinicsResponse{Results: clinics})
	}
}

func canReserveHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotTime := r.URL.Query().Get("time")
		clinicID := r.URL.Query().Get("clinic_id")
		if slotTime == "" || clinicID == "" {
			writeError(w, http.StatusBadRequest, "missing_params", "time and clinic_id query parameters are required")
			return
		}

		summary, err := svc.SlotAvailability(r.Context(), clinicID, slotTime)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		// summary is null when the slot is taken or nonexistent; that is a
		// valid answer, not an error.
		writeJSON(w, http.StatusOK, CanReserveResponse{Result: summary})
	}
}

func createReservationHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")

		var req CreateReservationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.ClinicID == "" || req.Time == "" || req.PetID == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "clinic_id, time and pet_id are required")
			return
		}

		res, err := svc.CreateReservation(r.Context(), booking.NewReservation{
			UserID:   userID,
			ClinicID: req.ClinicID,
			SlotTime: req.Time,
			PetID:    req.PetID,
			Symptoms: req.Symptoms,
		})
		if err != nil {
			handleReservationError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ReservationResponse{
			ID:        res.ID,
			UserID:    res.UserID,
			ClinicID:  res.ClinicID,
			Time:      res.SlotTime,
			PetID:     res.PetID,
			Symptoms:  res.Symptoms,
			CreatedAt: res.CreatedAt,
		})
	}
}

func cancelReservationHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		clinicID := r.URL.Query().Get("clinic_id")
		slotTime := r.URL.Query().Get("time")
		if clinicID == "" || slotTime == "" {
			writeError(w, http.StatusBadRequest, "missing_params", "clinic_id and time query parameters are required")
			return
		}

		if err := svc.CancelReservation(r.Context(), userID, clinicID, slotTime); err != nil {
			handleReservationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"result": "OK"})
	}
}

func userReservationsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")

		reservations, err := svc.ReservationsByUser(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"results": reservations})
	}
}

func clinicRosterHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID := chi.URLParam(r, "clinic_id")
		timeParam := r.URL.Query().Get("time")
		if timeParam == "" {
			writeError(w, http.StatusBadRequest, "missing_time", "time query parameter is required")
			return
		}

		roster, err := svc.ClinicRoster(r.Context(), clinicID, timeParam)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"results": roster})
	}
}

func handleReservationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, booking.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, "reservation_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
