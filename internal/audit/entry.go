package audit

import "time"

// Entry — одно событие аудита. Создается один раз на действие и дальше
// неизменно. Живет в двух представлениях: долговечная строка в Postgres
// и транзитный элемент recent-буфера. Буфер — кэш, не источник правды.
type Entry struct {
	ID            string                 `json:"id"`             // UUID события
	ActorID       string                 `json:"actor_id"`       // Кто делал
	Action        string                 `json:"action"`         // Что сделал: reservation.create, reservation.cancel...
	EntityType    string                 `json:"entity_type"`    // Над чем: reservation, resource, user
	EntityID      string                 `json:"entity_id"`      // Идентификатор сущности
	Details       map[string]interface{} `json:"details"`        // Структурированные подробности
	SourceAddress string                 `json:"source_address"` // Откуда пришел запрос
	ClientAgent   string                 `json:"client_agent"`   // User-Agent клиента
	OccurredAt    time.Time              `json:"occurred_at"`
}

// RequestContext — необязательный срез HTTP-контекста для аудита.
type RequestContext struct {
	SourceAddress string
	ClientAgent   string
}

// Query — фильтры read-эндпоинта аудита.
type Query struct {
	Limit      int
	ActorID    string
	Action     string
	EntityType string
	From       time.Time
	To         time.Time
}
