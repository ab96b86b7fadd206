package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Booking   BookingService
	Clinics   ClinicService
	Favorites FavoriteService
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
	Logger    *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Availability
	r.Get("/available/clinics", availableClinicsHandler(cfg.Booking))
	r.Get("/available/can-reserve", canReserveHandler(cfg.Booking))

	// Reservations
	r.Post("/reservations/{user_id}", createReservationHandler(cfg.Booking))
	r.Delete("/reservations/{user_id}", cancelReservationHandler(cfg.Booking))
	r.Get("/reservations/user/{user_id}", userReservationsHandler(cfg.Booking))
	r.Get("/reservations/clinic/{clinic_id}", clinicRosterHandler(cfg.Booking))

	// Clinic directory
	r.Get("/clinics", listClinicsHandler(cfg.Clinics))
	r.Get("/clinics/cards", clinicCardsHandler(cfg.Clinics))
	r.Get("/clinics/{id}", clinicDetailHandler(cfg.Clinics))
	r.Put("/clinics/{id}", updateClinicHandler(cfg.Clinics))

	// Favorites
	r.Get("/favorites/{user_id}", listFavoritesHandler(cfg.Favorites))
	r.Post("/favorites/{user_id}/{clinic_id}", addFavoriteHandler(cfg.Favorites))
	r.Delete("/favorites/{user_id}/{clinic_id}", removeFavoriteHandler(cfg.Favorites))
	r.Get("/favorites/{user_id}/{clinic_id}/like", favoriteExistsHandler(cfg.Favorites))

	return r
}
