package favorite

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) ListByUser(ctx context.Context, userID string) ([]Favorite, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, clinic_id, name, latitude, longitude, address,
		       COALESCE(phone, ''), COALESCE(image, ''), created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var result []Favorite
	for rows.Next() {
		var f Favorite
		err := rows.Scan(
			&f.UserID,
			&f.ClinicID,
			&f.Name,
			&f.Latitude,
			&f.Longitude,
			&f.Address,
			&f.Phone,
			&f.Image,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) Add(ctx context.Context, userID, clinicID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin favorite tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var clinicExists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM clinics WHERE id = $1)
	`, clinicID).Scan(&clinicExists)
	if err != nil {
		return fmt.Errorf("check clinic exists: %w", err)
	}
	if !clinicExists {
		return ErrClinicNotFound
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO favorites (user_id, clinic_id, name, latitude, longitude, address, phone, image)
		SELECT $1, id, name, latitude, longitude, address, phone, image
		FROM clinics
		WHERE id = $2
		ON CONFLICT (user_id, clinic_id) DO NOTHING
	`, userID, clinicID)
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyFavorite
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit favorite: %w", err)
	}
	return nil
}

func (r *PgRepository) Remove(ctx context.Context, userID, clinicID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM favorites WHERE user_id = $1 AND clinic_id = $2
	`, userID, clinicID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

func (r *PgRepository) Exists(ctx context.Context, userID, clinicID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND clinic_id = $2)
	`, userID, clinicID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite exists: %w", err)
	}
	return exists, nil
}
