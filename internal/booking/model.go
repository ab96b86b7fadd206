package booking

import (
	"time"

	"github.com/google/uuid"
)

// SlotTime values are opaque timestamp strings in the granularity the
// clinics publish ("2024-11-01T10:00"). They are compared byte-for-byte
// everywhere; the backend never parses them.

// ClinicSummary is the caller-facing shape of an available (clinic, time)
// pair: clinic display metadata plus the slot time that matched.
type ClinicSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	Image     string  `json:"image,omitempty"`
	Time      string  `json:"time"`
}

type Reservation struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	ClinicID  string    `json:"clinic_id"`
	SlotTime  string    `json:"time"`
	PetID     string    `json:"pet_id"`
	Symptoms  string    `json:"symptoms,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReservation carries the booking request into the writer.
type NewReservation struct {
	UserID   string
	ClinicID string
	SlotTime string
	PetID    string
	Symptoms string
}

// UserReservation is one row of a user's reservation list, already joined
// to the clinic it points at.
type UserReservation struct {
	ClinicID   string  `json:"clinic_id"`
	ClinicName string  `json:"clinic_name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	SlotTime   string  `json:"time"`
	Address    string  `json:"address"`
}

// RosterEntry is one row of a clinic's view of its bookings for a day:
// who is coming, with what animal, and why.
type RosterEntry struct {
	OwnerName       string `json:"owner_name"`
	SpeciesType     string `json:"species_type"`
	SpeciesCategory string `json:"species_category"`
	Features        string `json:"features,omitempty"`
	Symptoms        string `json:"symptoms,omitempty"`
	SlotTime        string `json:"time"`
}

type Event struct {
	ID            int64
	EventType     string
	ReservationID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
