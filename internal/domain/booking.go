package domain

import "time"

// ReservationStatus — жизненный цикл брони.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation — бронь ресурса (аудитория, лаборатория, оборудование).
// Бизнес-правила расписания живут выше; ядру важны только факты
// для аудита и отчетов.
type Reservation struct {
	ID         string            `json:"id"`
	TenantID   string            `json:"tenant_id"`
	ResourceID string            `json:"resource_id"`
	UserID     string            `json:"user_id"`
	StartsAt   time.Time         `json:"starts_at"`
	EndsAt     time.Time         `json:"ends_at"`
	Status     ReservationStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// CreateReservationRequest — входной DTO мутирующего эндпоинта.
type CreateReservationRequest struct {
	ResourceID string    `json:"resource_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
}
