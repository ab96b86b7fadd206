package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wy-vetapp/clinic-booking/internal/cache"
)

// memBackend is an in-memory cache.Backend; with failing set, every call
// errors the way an unreachable redis would.
type memBackend struct {
	mu      sync.Mutex
	data    map[string][]byte
	failing bool
	deletes int
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]byte)}
}

func (b *memBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if b.failing {
		return nil, false, errors.New("backend unreachable")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok := b.data[key]
	return raw, ok, nil
}

func (b *memBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if b.failing {
		return errors.New("backend unreachable")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return nil
}

func (b *memBackend) Delete(ctx context.Context, keys ...string) error {
	if b.failing {
		return errors.New("backend unreachable")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.data, k)
	}
	b.deletes += len(keys)
	return nil
}

type clinicMeta struct {
	Name    string
	Lat     float64
	Lon     float64
	Address string
	Image   string
}

// fakeRepo enforces the same invariants the real schema does: the
// reservations map is keyed by (clinic, time), so inserting into a held
// slot under the mutex reports ErrSlotTaken exactly like the UNIQUE
// constraint's ON CONFLICT path.
type fakeRepo struct {
	mu           sync.Mutex
	clinics      map[string]clinicMeta
	slots        map[string]bool        // clinicID|slotTime
	reservations map[string]Reservation // clinicID|slotTime
	users        map[string]string      // userID -> display name
	events       []Event
	queryCount   map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		clinics:      make(map[string]clinicMeta),
		slots:        make(map[string]bool),
		reservations: make(map[string]Reservation),
		users:        make(map[string]string),
		queryCount:   make(map[string]int),
	}
}

func slotKey(clinicID, slotTime string) string { return clinicID + "|" + slotTime }

func (r *fakeRepo) addClinic(id string, meta clinicMeta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clinics[id] = meta
}

func (r *fakeRepo) addSlot(clinicID, slotTime string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[slotKey(clinicID, slotTime)] = true
}

func (r *fakeRepo) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queryCount[op]
}

func (r *fakeRepo) summary(clinicID, slotTime string) ClinicSummary {
	meta := r.clinics[clinicID]
	return ClinicSummary{
		ID:        clinicID,
		Name:      meta.Name,
		Latitude:  meta.Lat,
		Longitude: meta.Lon,
		Address:   meta.Address,
		Image:     meta.Image,
		Time:      slotTime,
	}
}

func (r *fakeRepo) AvailableClinics(ctx context.Context, slotTime string) ([]ClinicSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queryCount["available_clinics"]++

	var result []ClinicSummary
	for key := range r.slots {
		clinicID, st, _ := strings.Cut(key, "|")
		if st != slotTime {
			continue
		}
		if _, taken := r.reservations[key]; taken {
			continue
		}
		result = append(result, r.summary(clinicID, st))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *fakeRepo) SlotAvailability(ctx context.Context, clinicID, slotTime string) (*ClinicSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queryCount["slot_availability"]++

	key := slotKey(clinicID, slotTime)
	if !r.slots[key] {
		return nil, nil
	}
	if _, taken := r.reservations[key]; taken {
		return nil, nil
	}
	s := r.summary(clinicID, slotTime)
	return &s, nil
}

func (r *fakeRepo) CreateReservation(ctx context.Context, req NewReservation) (*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queryCount["create_reservation"]++

	key := slotKey(req.ClinicID, req.SlotTime)
	if !r.slots[key] {
		return nil, ErrSlotNotFound
	}
	if _, taken := r.reservations[key]; taken {
		return nil, ErrSlotTaken
	}

	res := Reservation{
		ID:        uuid.New(),
		UserID:    req.UserID,
		ClinicID:  req.ClinicID,
		SlotTime:  req.SlotTime,
		PetID:     req.PetID,
		Symptoms:  req.Symptoms,
		CreatedAt: time.Now(),
	}
	r.reservations[key] = res
	return &res, nil
}

func (r *fakeRepo) DeleteReservation(ctx context.Context, userID, clinicID, slotTime string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queryCount["delete_reservation"]++

	key := slotKey(clinicID, slotTime)
	res, ok := r.reservations[key]
	if !ok || res.UserID != userID {
		return ErrReservationNotFound
	}
	delete(r.reservations, key)
	return nil
}

func (r *fakeRepo) ReservationsByUser(ctx context.Context, userID string) ([]UserReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queryCount["reservations_by_user"]++

	var result []UserReservation
	for _, res := range r.reservations {
		if res.UserID != userID {
			continue
		}
		meta := r.clinics[res.ClinicID]
		result = append(result, UserReservation{
			ClinicID:   res.ClinicID,
			ClinicName: meta.Name,
			Latitude:   meta.Lat,
			Longitude:  meta.Lon,
			SlotTime:   res.SlotTime,
			Address:    meta.Address,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SlotTime < result[j].SlotTime })
	return result, nil
}

func (r *fakeRepo) ClinicRoster(ctx context.Context, clinicID, dayPrefix string) ([]RosterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queryCount["clinic_roster"]++

	var result []RosterEntry
	for _, res := range r.reservations {
		if res.ClinicID != clinicID || !strings.HasPrefix(res.SlotTime, dayPrefix) {
			continue
		}
		name := r.users[res.UserID]
		if name == "" {
			name = res.UserID
		}
		result = append(result, RosterEntry{
			OwnerName:   name,
			SpeciesType: "dog",
			Symptoms:    res.Symptoms,
			SlotTime:    res.SlotTime,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SlotTime < result[j].SlotTime })
	return result, nil
}

func (r *fakeRepo) InsertEvent(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *fakeRepo) DeleteBefore(ctx context.Context, cutoff string) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var slots, reservations int64
	for key := range r.reservations {
		_, st, _ := strings.Cut(key, "|")
		if st < cutoff {
			delete(r.reservations, key)
			reservations++
		}
	}
	for key := range r.slots {
		_, st, _ := strings.Cut(key, "|")
		if st < cutoff {
			delete(r.slots, key)
			slots++
		}
	}
	return slots, reservations, nil
}

func newTestService(repo Repository, backend cache.Backend) *Service {
	store := cache.NewStore(backend, time.Hour, 50*time.Millisecond, zap.NewNop())
	inv := NewInvalidator(store, zap.NewNop())
	return NewService(repo, store, inv, zap.NewNop())
}

const (
	clinic1 = "vet-1"
	clinic2 = "vet-2"
	slotT   = "2024-11-01T10:00"
)

func seededRepo() *fakeRepo {
	repo := newFakeRepo()
	repo.addClinic(clinic1, clinicMeta{Name: "Downtown Vet", Lat: 37.5, Lon: 127.0, Address: "1 Main St"})
	repo.addClinic(clinic2, clinicMeta{Name: "Uptown Vet", Lat: 37.6, Lon: 127.1, Address: "2 High St"})
	repo.addSlot(clinic1, slotT)
	repo.addSlot(clinic2, slotT)
	return repo
}

func TestAvailableClinics_AntiJoin(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo, newMemBackend())
	ctx := context.Background()

	clinics, err := svc.AvailableClinics(ctx, slotT)
	require.NoError(t, err)
	require.Len(t, clinics, 2)

	_, err = svc.CreateReservation(ctx, NewReservation{
		UserID: "user-1", ClinicID: clinic1, SlotTime: slotT, PetID: "pet-9",
	})
	require.NoError(t, err)

	clinics, err = svc.AvailableClinics(ctx, slotT)
	require.NoError(t, err)
	require.Len(t, clinics, 1)
	assert.Equal(t, clinic2, clinics[0].ID)

	_, err = svc.CreateReservation(ctx, NewReservation{
		UserID: "user-2", ClinicID: clinic2, SlotTime: slotT, PetID: "pet-3",
	})
	require.NoError(t, err)

	_, err = svc.AvailableClinics(ctx, slotT)
	assert.ErrorIs(t, err, ErrNoAvailableClinics)
}

func TestAvailableClinics_SecondReadHitsCache(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo, newMemBackend())
	ctx := context.Background()

	_, err := svc.AvailableClinics(ctx, slotT)
	require.NoError(t, err)
	_, err = svc.AvailableClinics(ctx, slotT)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.count("available_clinics"))
}

func TestCreateReservation_Exclusivity(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo, newMemBackend())

	const bookers = 10
	results := make([]error, bookers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < bookers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = svc.CreateReservation(context.Background(), NewReservation{
				UserID:   fmt.Sprintf("user-%d", i),
				ClinicID: clinic1,
				SlotTime: slotT,
				PetID:    fmt.Sprintf("pet-%d", i),
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var success, conflict int
	for _, err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrSlotTaken):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, success)
	assert.Equal(t, bookers-1, conflict)
}

func TestCreateReservation_SlotNotFound(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo, newMemBackend())

	_, err := svc.CreateReservation(context.Background(), NewReservation{
		UserID: "user-1", ClinicID: clinic1, SlotTime: "2024-11-02T09:00", PetID: "pet-9",
	})
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestSlotAvailability_InvalidationBound(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo, newMemBackend())
	ctx := context.Background()

	// Warm the cache with "free".
	free, err := svc.SlotAvailability(ctx, clinic1, slotT)
	require.NoError(t, err)
	require.NotNil(t, free)
	assert.Equal(t, clinic1, free.ID)

	_, err = svc.CreateReservation(ctx, NewReservation{
		UserID: "user-1", ClinicID: clinic1, SlotTime: slotT, PetID: "pet-9",
	})
	require.NoError(t, err)

	// CreateReservation returned, so invalidation completed: the stale
	// "free" answer must be gone.
	taken, err := svc.SlotAvailability(ctx, clinic1, slotT)
	require.NoError(t, err)
	assert.Nil(t, taken)

	require.NoError(t, svc.CancelReservation(ctx, "user-1", clinic1, slotT))

	again, err := svc.SlotAvailability(ctx, clinic1, slotT)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, clinic1, again.ID)
}

func TestCancelReservation_NotFoundLeavesStateAlone(t *testing.T) {
	repo := seededRepo()
	backend := newMemBackend()
	svc := newTestService(repo, backend)
	ctx := context.Background()

	// Warm a cache entry that a real cancel would evict.
	_, err := svc.AvailableClinics(ctx, slotT)
	require.NoError(t, err)
	deletesBefore := backend.deletes

	err = svc.CancelReservation(ctx, "user-1", clinic1, slotT)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	assert.Equal(t, deletesBefore, backend.deletes)
	assert.Empty(t, repo.reservations)
}

func TestCacheUnreachable_AllOperationsDegrade(t *testing.T) {
	repo := seededRepo()
	backend := newMemBackend()
	backend.failing = true
	svc := newTestService(repo, backend)
	ctx := context.Background()

	clinics, err := svc.AvailableClinics(ctx, slotT)
	require.NoError(t, err)
	assert.Len(t, clinics, 2)

	free, err := svc.SlotAvailability(ctx, clinic1, slotT)
	require.NoError(t, err)
	assert.NotNil(t, free)

	_, err = svc.CreateReservation(ctx, NewReservation{
		UserID: "user-1", ClinicID: clinic1, SlotTime: slotT, PetID: "pet-9",
	})
	require.NoError(t, err)

	// Without a cache every read goes straight to the store and is
	// immediately consistent.
	taken, err := svc.SlotAvailability(ctx, clinic1, slotT)
	require.NoError(t, err)
	assert.Nil(t, taken)

	require.NoError(t, svc.CancelReservation(ctx, "user-1", clinic1, slotT))

	list, err := svc.ReservationsByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReservationsByUser_InvalidatedByBooking(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo, newMemBackend())
	ctx := context.Background()

	list, err := svc.ReservationsByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.CreateReservation(ctx, NewReservation{
		UserID: "user-1", ClinicID: clinic1, SlotTime: slotT, PetID: "pet-9",
	})
	require.NoError(t, err)

	list, err = svc.ReservationsByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, clinic1, list[0].ClinicID)
	assert.Equal(t, slotT, list[0].SlotTime)
}

func TestClinicRoster_DayGranularity(t *testing.T) {
	repo := seededRepo()
	repo.addSlot(clinic1, "2024-11-01T14:00")
	repo.addSlot(clinic1, "2024-11-02T10:00")
	svc := newTestService(repo, newMemBackend())
	ctx := context.Background()

	for _, visit := range []struct{ user, slot string }{
		{"user-1", slotT},
		{"user-2", "2024-11-01T14:00"},
		{"user-3", "2024-11-02T10:00"},
	} {
		_, err := svc.CreateReservation(ctx, NewReservation{
			UserID: visit.user, ClinicID: clinic1, SlotTime: visit.slot, PetID: "pet-1",
		})
		require.NoError(t, err)
	}

	roster, err := svc.ClinicRoster(ctx, clinic1, "2024-11-01")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, slotT, roster[0].SlotTime)
	assert.Equal(t, "2024-11-01T14:00", roster[1].SlotTime)

	// A full slot time collapses to the same day's roster.
	rosterByTime, err := svc.ClinicRoster(ctx, clinic1, "2024-11-01T14:00")
	require.NoError(t, err)
	assert.Equal(t, roster, rosterByTime)
	assert.Equal(t, 1, repo.count("clinic_roster"))
}

// The end-to-end shape of a booking day: discover, book, lose the race,
// cancel, rediscover.
func TestBookingScenario(t *testing.T) {
	repo := newFakeRepo()
	repo.addClinic("vet-1", clinicMeta{Name: "Riverside Animal Clinic", Lat: 37.51, Lon: 127.02, Address: "12 River Rd"})
	repo.addSlot("vet-1", "2024-11-01T10:00")
	svc := newTestService(repo, newMemBackend())
	ctx := context.Background()

	clinics, err := svc.AvailableClinics(ctx, "2024-11-01T10:00")
	require.NoError(t, err)
	require.Len(t, clinics, 1)
	assert.Equal(t, "vet-1", clinics[0].ID)

	_, err = svc.CreateReservation(ctx, NewReservation{
		UserID: "user-1", ClinicID: "vet-1", SlotTime: "2024-11-01T10:00", PetID: "pet-9",
	})
	require.NoError(t, err)

	_, err = svc.AvailableClinics(ctx, "2024-11-01T10:00")
	assert.ErrorIs(t, err, ErrNoAvailableClinics)

	_, err = svc.CreateReservation(ctx, NewReservation{
		UserID: "user-2", ClinicID: "vet-1", SlotTime: "2024-11-01T10:00", PetID: "pet-4",
	})
	assert.ErrorIs(t, err, ErrSlotTaken)

	require.NoError(t, svc.CancelReservation(ctx, "user-1", "vet-1", "2024-11-01T10:00"))

	clinics, err = svc.AvailableClinics(ctx, "2024-11-01T10:00")
	require.NoError(t, err)
	require.Len(t, clinics, 1)
	assert.Equal(t, "vet-1", clinics[0].ID)
}

func TestCreateReservation_RecordsEvent(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo, newMemBackend())

	_, err := svc.CreateReservation(context.Background(), NewReservation{
		UserID: "user-1", ClinicID: clinic1, SlotTime: slotT, PetID: "pet-9",
	})
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	assert.Equal(t, EventReservationCreated, repo.events[0].EventType)
}

func TestPruneBefore(t *testing.T) {
	repo := seededRepo()
	repo.addSlot(clinic1, "2024-10-01T10:00")
	svc := newTestService(repo, newMemBackend())
	ctx := context.Background()

	_, err := svc.CreateReservation(ctx, NewReservation{
		UserID: "user-1", ClinicID: clinic1, SlotTime: "2024-10-01T10:00", PetID: "pet-9",
	})
	require.NoError(t, err)

	slots, reservations, err := svc.PruneBefore(ctx, "2024-11-01T00:00")
	require.NoError(t, err)
	assert.EqualValues(t, 1, slots)
	assert.EqualValues(t, 1, reservations)

	// The current slots survive.
	clinics, err := svc.AvailableClinics(ctx, slotT)
	require.NoError(t, err)
	assert.Len(t, clinics, 2)
}
