package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanSummary(row pgx.Row) (*ClinicSummary, error) {
	var s ClinicSummary
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Latitude,
		&s.Longitude,
		&s.Address,
		&s.Image,
		&s.Time,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var res Reservation
	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.ClinicID,
		&res.SlotTime,
		&res.PetID,
		&res.Symptoms,
		&res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Interface methods

func (r *PgRepository) AvailableClinics(ctx context.Context, slotTime string) ([]ClinicSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, c.latitude, c.longitude, c.address, COALESCE(c.image, ''), a.slot_time
		FROM available_times a
		JOIN clinics c ON c.id = a.clinic_id
		WHERE a.slot_time = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM reservations res
		      WHERE res.clinic_id = a.clinic_id AND res.slot_time = a.slot_time
		  )
		ORDER BY c.name
	`, slotTime)
	if err != nil {
		return nil, fmt.Errorf("query available clinics: %w", err)
	}
	defer rows.Close()

	var result []ClinicSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) SlotAvailability(ctx context.Context, clinicID, slotTime string) (*ClinicSummary, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT c.id, c.name, c.latitude, c.longitude, c.address, COALESCE(c.image, ''), a.slot_time
		FROM available_times a
		JOIN clinics c ON c.id = a.clinic_id
		WHERE a.clinic_id = $1
		  AND a.slot_time = $2
		  AND NOT EXISTS (
		      SELECT 1 FROM reservations res
		      WHERE res.clinic_id = a.clinic_id AND res.slot_time = a.slot_time
		  )
	`, clinicID, slotTime)

	s, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Taken or never declared. Not an error: the caller-facing
			// contract is an absent result.
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *PgRepository) CreateReservation(ctx context.Context, req NewReservation) (*Reservation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reservation tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var slotExists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM available_times
			WHERE clinic_id = $1 AND slot_time = $2
		)
	`, req.ClinicID, req.SlotTime).Scan(&slotExists)
	if err != nil {
		return nil, fmt.Errorf("check slot exists: %w", err)
	}
	if !slotExists {
		return nil, ErrSlotNotFound
	}

	// The UNIQUE (clinic_id, slot_time) constraint is the serialization
	// point for concurrent bookers: losing the race yields zero rows here,
	// never a dirty read.
	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO reservations (id, user_id, clinic_id, slot_time, pet_id, symptoms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (clinic_id, slot_time) DO NOTHING
		RETURNING id, user_id, clinic_id, slot_time, pet_id, symptoms, created_at
	`, id, req.UserID, req.ClinicID, req.SlotTime, req.PetID, req.Symptoms)

	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reservation: %w", err)
	}

	return res, nil
}

func (r *PgRepository) DeleteReservation(ctx context.Context, userID, clinicID, slotTime string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM reservations
		WHERE user_id = $1 AND clinic_id = $2 AND slot_time = $3
	`, userID, clinicID, slotTime)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (r *PgRepository) ReservationsByUser(ctx context.Context, userID string) ([]UserReservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, c.latitude, c.longitude, res.slot_time, c.address
		FROM reservations res
		JOIN clinics c ON c.id = res.clinic_id
		WHERE res.user_id = $1
		ORDER BY res.slot_time
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user reservations: %w", err)
	}
	defer rows.Close()

	var result []UserReservation
	for rows.Next() {
		var ur UserReservation
		err := rows.Scan(
			&ur.ClinicID,
			&ur.ClinicName,
			&ur.Latitude,
			&ur.Longitude,
			&ur.SlotTime,
			&ur.Address,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, ur)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ClinicRoster(ctx context.Context, clinicID, dayPrefix string) ([]RosterEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.name, p.species_type, p.species_category, COALESCE(p.features, ''),
		       COALESCE(res.symptoms, ''), res.slot_time
		FROM reservations res
		JOIN users u ON u.id = res.user_id
		JOIN pets p ON p.id = res.pet_id
		WHERE res.clinic_id = $1
		  AND res.slot_time LIKE $2 || '%'
		ORDER BY res.slot_time ASC
	`, clinicID, dayPrefix)
	if err != nil {
		return nil, fmt.Errorf("query clinic roster: %w", err)
	}
	defer rows.Close()

	var result []RosterEntry
	for rows.Next() {
		var re RosterEntry
		err := rows.Scan(
			&re.OwnerName,
			&re.SpeciesType,
			&re.SpeciesCategory,
			&re.Features,
			&re.Symptoms,
			&re.SlotTime,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, re)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO booking_events (event_type, reservation_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.ReservationID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert booking event: %w", err)
	}

	return nil
}

func (r *PgRepository) DeleteBefore(ctx context.Context, cutoff string) (int64, int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin retention tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Reservations first: they reference available_times.
	resTag, err := tx.Exec(ctx, `
		DELETE FROM reservations WHERE slot_time < $1
	`, cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("delete past reservations: %w", err)
	}

	slotTag, err := tx.Exec(ctx, `
		DELETE FROM available_times WHERE slot_time < $1
	`, cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("delete past slots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit retention tx: %w", err)
	}

	return slotTag.RowsAffected(), resTag.RowsAffected(), nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
