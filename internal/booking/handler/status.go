package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xela07ax/reservahub/internal/admission"
)

type StatusHandler struct {
	controller *admission.Controller
}

func NewStatusHandler(c *admission.Controller) *StatusHandler {
	return &StatusHandler{controller: c}
}

// GetStatus — снимок загрузки инстанса для операторов
// GET /v1/system/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.controller.Status())
}
