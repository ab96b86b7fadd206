package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wy-vetapp/clinic-booking/internal/favorite"
)

type FavoriteService interface {
	ListByUser(ctx context.Context, userID string) ([]favorite.Favorite, error)
	Add(ctx context.Context, userID, clinicID string) error
	Remove(ctx context.Context, userID, clinicID string) error
	Exists(ctx context.Context, userID, clinicID string) (bool, error)
}

func listFavoritesHandler(svc FavoriteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")

		favorites, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, favorite.ErrNoFavorites) {
				writeError(w, http.StatusNotFound, "no_favorites", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"results": favorites})
	}
}

func addFavoriteHandler(svc FavoriteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		clinicID := chi.URLParam(r, "clinic_id")

		if err := svc.Add(r.Context(), userID, clinicID); err != nil {
			switch {
			case errors.Is(err, favorite.ErrClinicNotFound):
				writeError(w, http.StatusNotFound, "clinic_not_found", err.Error())
			case errors.Is(err, favorite.ErrAlreadyFavorite):
				writeError(w, http.StatusConflict, "already_favorite", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"result": "OK"})
	}
}

func removeFavoriteHandler(svc FavoriteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		clinicID := chi.URLParam(r, "clinic_id")

		if err := svc.Remove(r.Context(), userID, clinicID); err != nil {
			if errors.Is(err, favorite.ErrFavoriteNotFound) {
				writeError(w, http.StatusNotFound, "favorite_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"result": "OK"})
	}
}

func favoriteExistsHandler(svc FavoriteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		clinicID := chi.URLParam(r, "clinic_id")

		ok, err := svc.Exists(r.Context(), userID, clinicID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"result": ok})
	}
}
