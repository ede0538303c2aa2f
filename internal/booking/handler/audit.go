package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/xela07ax/reservahub/internal/audit"
	"github.com/xela07ax/reservahub/internal/booking/service"
)

const defaultAuditLimit = 100

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(s *service.AuditService) *AuditHandler {
	return &AuditHandler{service: s}
}

// GetLogs возвращает события аудита newest-first с поддержкой фильтрации
// GET /v1/audit?limit=50&actor_id=...&action=...&entity_type=...&from=...&to=...
func (h *AuditHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	q := audit.Query{
		Limit:      defaultAuditLimit,
		ActorID:    r.URL.Query().Get("actor_id"),
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entity_type"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			q.Limit = limit
		}
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			q.From = ts
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			q.To = ts
		}
	}

	entries, err := h.service.FetchLogs(r.Context(), q)
	if err != nil {
		http.Error(w, "Failed to fetch audit logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
