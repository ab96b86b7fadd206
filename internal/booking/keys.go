package booking

import "github.com/wy-vetapp/clinic-booking/internal/cache"

// Every cached read path in this package derives its key here, next to the
// invalidation map below. A new cached query must add its key function AND
// teach the Invalidator which writes affect it.

func availableClinicsKey(slotTime string) string {
	return cache.Key("available_clinics", map[string]string{"time": slotTime})
}

func slotCheckKey(clinicID, slotTime string) string {
	return cache.Key("can_reserve", map[string]string{
		"clinic_id": clinicID,
		"time":      slotTime,
	})
}

func userReservationsKey(userID string) string {
	return cache.Key("user_reservations", map[string]string{"user_id": userID})
}

func clinicRosterKey(clinicID, dayPrefix string) string {
	return cache.Key("clinic_roster", map[string]string{
		"clinic_id": clinicID,
		"time":      dayPrefix,
	})
}

// dayPrefix reduces a slot time to its day ("2024-11-01T10:00" ->
// "2024-11-01"), the granularity the clinic roster is cached at.
func dayPrefix(slotTime string) string {
	if len(slotTime) > 10 {
		return slotTime[:10]
	}
	return slotTime
}
