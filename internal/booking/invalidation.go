package booking

import (
	"context"

	"go.uber.org/zap"

	"github.com/wy-vetapp/clinic-booking/internal/cache"
)

// Invalidator centralizes the mapping from a reservation write to the cache
// entries whose derived facts it may have changed. The write it follows is
// already committed; eviction is best-effort and a failed eviction only
// stretches staleness to at most one TTL window.
type Invalidator struct {
	store  *cache.Store
	logger *zap.Logger
}

func NewInvalidator(store *cache.Store, logger *zap.Logger) *Invalidator {
	return &Invalidator{store: store, logger: logger}
}

// ReservationChanged evicts everything that could answer differently now
// that (clinicID, slotTime) gained or lost a reservation: the per-time
// availability set, the per-slot check, the booking user's reservation
// list, and the clinic's roster for that day.
func (inv *Invalidator) ReservationChanged(ctx context.Context, userID, clinicID, slotTime string) {
	keys := []string{
		availableClinicsKey(slotTime),
		slotCheckKey(clinicID, slotTime),
		userReservationsKey(userID),
		clinicRosterKey(clinicID, dayPrefix(slotTime)),
	}

	inv.logger.Debug("invalidating reservation-dependent cache entries",
		zap.String("clinic_id", clinicID),
		zap.String("time", slotTime),
		zap.Strings("keys", keys),
	)

	inv.store.Invalidate(ctx, keys...)
}
