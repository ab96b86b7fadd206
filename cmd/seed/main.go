package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wy-vetapp/clinic-booking/internal/db"
)

const slotTimeLayout = "2006-01-02T15:04"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedUsersAndPets(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed users/pets: %v", err)
	}
	if err := seedClinics(context.Background(), pool, 50); err != nil {
		log.Fatalf("seed clinics: %v", err)
	}
	if err := seedSlots(context.Background(), pool, 7); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func seedUsersAndPets(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d users with pets", count)

	species := [][2]string{
		{"dog", "retriever"},
		{"dog", "poodle"},
		{"dog", "shiba"},
		{"cat", "korat"},
		{"cat", "persian"},
		{"rabbit", "lop"},
		{"hamster", "dwarf"},
		{"bird", "parakeet"},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		userID := fmt.Sprintf("user-%04d", i+1)
		email := gofakeit.Email()

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			ON CONFLICT (id) DO NOTHING
		`, userID, gofakeit.Name(), email)
		if err != nil {
			return err
		}

		sp := species[gofakeit.Number(0, len(species)-1)]
		petID := fmt.Sprintf("pet-%04d", i+1)

		_, err = tx.Exec(ctx, `
			INSERT INTO pets (id, user_id, name, species_type, species_category, features, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (id) DO NOTHING
		`, petID, userID, gofakeit.PetName(), sp[0], sp[1], gofakeit.AdjectiveDescriptive())
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedClinics(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d clinics", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("vet-%d", i+1)
		addr := gofakeit.Address()

		_, err := tx.Exec(ctx, `
			INSERT INTO clinics
				(id, name, latitude, longitude, start_time, end_time, introduction, address, phone, image, created_at, updated_at)
			VALUES ($1, $2, $3, $4, '09:00', '18:00', $5, $6, $7, '', now(), now())
			ON CONFLICT (id) DO NOTHING
		`, id, gofakeit.Company()+" Animal Clinic", addr.Latitude, addr.Longitude,
			gofakeit.Sentence(8), addr.Address, gofakeit.Phone())
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// seedSlots declares hourly slots for each clinic over the next `days`
// days, 09:00 to 17:00.
func seedSlots(ctx context.Context, pool *pgxpool.Pool, days int) error {
	log.Printf("seeding slots for the next %d days", days)

	rows, err := pool.Query(ctx, `SELECT id FROM clinics`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var clinicIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		clinicIDs = append(clinicIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	day := time.Now().Truncate(24 * time.Hour)
	total := 0
	for d := 0; d < days; d++ {
		for hour := 9; hour < 18; hour++ {
			slot := day.AddDate(0, 0, d).Add(time.Duration(hour) * time.Hour).Format(slotTimeLayout)
			for _, clinicID := range clinicIDs {
				_, err := tx.Exec(ctx, `
					INSERT INTO available_times (clinic_id, slot_time)
					VALUES ($1, $2)
					ON CONFLICT (clinic_id, slot_time) DO NOTHING
				`, clinicID, slot)
				if err != nil {
					return err
				}
				total++
			}
		}
	}

	log.Printf("declared %d slots", total)
	return tx.Commit(ctx)
}
