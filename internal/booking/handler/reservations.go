package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xela07ax/reservahub/internal/audit"
	"github.com/xela07ax/reservahub/internal/booking/service"
	"github.com/xela07ax/reservahub/internal/domain"
	infrauth "github.com/xela07ax/reservahub/internal/infra/auth"
)

type ReservationHandler struct {
	service *service.ReservationService
}

func NewReservationHandler(s *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: s}
}

// requestContext — срез HTTP-запроса для аудита.
func requestContext(r *http.Request) *audit.RequestContext {
	return &audit.RequestContext{
		SourceAddress: r.RemoteAddr,
		ClientAgent:   r.UserAgent(),
	}
}

// Create создает бронь
// POST /v1/reservations
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := infrauth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req domain.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	res, err := h.service.Create(r.Context(), claims, req, requestContext(r))
	if err != nil {
		http.Error(w, "Failed to create reservation", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

// Cancel отменяет бронь владельца
// POST /v1/reservations/{id}/cancel
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := infrauth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Cancel(r.Context(), claims, id, requestContext(r)); err != nil {
		http.Error(w, "Failed to cancel reservation", http.StatusUnprocessableEntity)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
