package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const clinicColumns = `
	id, name, latitude, longitude,
	COALESCE(start_time, ''), COALESCE(end_time, ''), COALESCE(introduction, ''),
	address, COALESCE(phone, ''), COALESCE(image, ''),
	created_at, updated_at
`

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Latitude,
		&c.Longitude,
		&c.StartTime,
		&c.EndTime,
		&c.Introduction,
		&c.Address,
		&c.Phone,
		&c.Image,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicNotFound
		}
		return nil, err
	}
	return &c, nil
}

func collectClinics(rows pgx.Rows) ([]Clinic, error) {
	defer rows.Close()

	var result []Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) List(ctx context.Context) ([]Clinic, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+clinicColumns+`
		FROM clinics
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query clinics: %w", err)
	}
	return collectClinics(rows)
}

func (r *PgRepository) Search(ctx context.Context, term string) ([]Clinic, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+clinicColumns+`
		FROM clinics
		WHERE name LIKE '%' || $1 || '%' OR address LIKE '%' || $1 || '%'
		ORDER BY name
	`, term)
	if err != nil {
		return nil, fmt.Errorf("search clinics: %w", err)
	}
	return collectClinics(rows)
}

func (r *PgRepository) GetByID(ctx context.Context, id string) (*Clinic, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+clinicColumns+`
		FROM clinics
		WHERE id = $1
	`, id)
	return scanClinic(row)
}

func (r *PgRepository) Cards(ctx context.Context) ([]Card, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, address, COALESCE(image, '')
		FROM clinics
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query clinic cards: %w", err)
	}
	defer rows.Close()

	var result []Card
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.Name, &c.Address, &c.Image); err != nil {
			return nil, err
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) Update(ctx context.Context, id string, upd ProfileUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE clinics
		SET name = $2,
		    latitude = $3,
		    longitude = $4,
		    start_time = $5,
		    end_time = $6,
		    introduction = $7,
		    address = $8,
		    phone = $9,
		    image = $10,
		    updated_at = now()
		WHERE id = $1
	`, id, upd.Name, upd.Latitude, upd.Longitude, upd.StartTime, upd.EndTime,
		upd.Introduction, upd.Address, upd.Phone, upd.Image)
	if err != nil {
		return fmt.Errorf("update clinic: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClinicNotFound
	}
	return nil
}
