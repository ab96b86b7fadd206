package favorite

import "time"

// Favorite snapshots the clinic's display fields at the time it was added,
// so the list screen renders without a join.
type Favorite struct {
	UserID    string    `json:"user_id"`
	ClinicID  string    `json:"clinic_id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone,omitempty"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
