package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wy-vetapp/clinic-booking/internal/clinic"
)

type ClinicService interface {
	List(ctx context.Context) ([]clinic.Clinic, error)
	Search(ctx context.Context, term string) ([]clinic.Clinic, error)
	Detail(ctx context.Context, id string) (*clinic.Clinic, error)
	Cards(ctx context.Context) ([]clinic.Card, error)
	UpdateProfile(ctx context.Context, id string, upd clinic.ProfileUpdate) error
}

func listClinicsHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			clinics []clinic.Clinic
			err     error
		)

		if term := r.URL.Query().Get("search"); term != "" {
			clinics, err = svc.Search(r.Context(), term)
		} else {
			clinics, err = svc.List(r.Context())
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"results": clinics})
	}
}

func clinicCardsHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := svc.Cards(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"results": cards})
	}
}

func clinicDetailHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		c, err := svc.Detail(r.Context(), id)
		if err != nil {
			if errors.Is(err, clinic.ErrClinicNotFound) {
				writeError(w, http.StatusNotFound, "clinic_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, c)
	}
}

func updateClinicHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req ClinicUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		err := svc.UpdateProfile(r.Context(), id, clinic.ProfileUpdate{
			Name:         req.Name,
			Latitude:     req.Latitude,
			Longitude:    req.Longitude,
			StartTime:    req.StartTime,
			EndTime:      req.EndTime,
			Introduction: req.Introduction,
			Address:      req.Address,
			Phone:        req.Phone,
			Image:        req.Image,
		})
		if err != nil {
			if errors.Is(err, clinic.ErrClinicNotFound) {
				writeError(w, http.StatusNotFound, "clinic_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"result": "OK"})
	}
}
