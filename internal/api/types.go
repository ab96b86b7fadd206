package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/wy-vetapp/clinic-booking/internal/booking"
)

type CreateReservationRequest struct {
	ClinicID string `json:"clinic_id"`
	Time     string `json:"time"`
	PetID    string `json:"pet_id"`
	Symptoms string `json:"symptoms"`
}

type ReservationResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	ClinicID  string    `json:"clinic_id"`
	Time      string    `json:"time"`
	PetID     string    `json:"pet_id"`
	Symptoms  string    `json:"symptoms,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AvailableClinicsResponse struct {
	Results []booking.ClinicSummary `json:"results"`
}

// CanReserveResponse carries the slot check answer; Result is null when the
// slot is taken or does not exist.
type CanReserveResponse struct {
	Result *booking.ClinicSummary `json:"result"`
}

type ClinicUpdateRequest struct {
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Introduction string  `json:"introduction"`
	Address      string  `json:"address"`
	Phone        string  `json:"phone"`
	Image        string  `json:"image"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
