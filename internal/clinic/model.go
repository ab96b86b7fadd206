package clinic

import "time"

type Clinic struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	StartTime    string    `json:"start_time,omitempty"`
	EndTime      string    `json:"end_time,omitempty"`
	Introduction string    `json:"introduction,omitempty"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone,omitempty"`
	Image        string    `json:"image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Card is the short listing shape used by clinic overview screens.
type Card struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Image   string `json:"image,omitempty"`
}

// ProfileUpdate carries a full clinic-profile replacement.
type ProfileUpdate struct {
	Name         string
	Latitude     float64
	Longitude    float64
	StartTime    string
	EndTime      string
	Introduction string
	Address      string
	Phone        string
	Image        string
}
