package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xela07ax/reservahub/internal/booking/service"
	infrauth "github.com/xela07ax/reservahub/internal/infra/auth"
)

type ReportsHandler struct {
	service *service.ReportsService
}

func NewReportsHandler(s *service.ReportsService) *ReportsHandler {
	return &ReportsHandler{service: s}
}

// GetUsage возвращает агрегаты по тенанту вызывающего
// GET /v1/reports/usage
func (h *ReportsHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	claims, ok := infrauth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := h.service.GetUsageStats(r.Context(), claims.TenantID)
	if err != nil {
		http.Error(w, "Failed to fetch stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
