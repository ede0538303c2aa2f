package domain

import "time"

// SystemStatus — производный снимок состояния Admission Controller.
// Нигде не хранится: собирается из атомарных счетчиков на каждый запрос.
type SystemStatus struct {
	ActiveRequests int64      `json:"active_requests"`
	PeakRequests   int64      `json:"peak_requests"`
	TotalRequests  int64      `json:"total_requests"`
	MaxConcurrent  int64      `json:"max_concurrent"`
	Utilization    float64    `json:"utilization"` // active / max, 0..1+
	Saturated      bool       `json:"saturated"`
	SaturatedSince *time.Time `json:"saturated_since,omitempty"`
}
