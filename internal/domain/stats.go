package domain

// UsageStats — агрегаты для отчетного эндпоинта (тяжелый read-путь,
// который прячется за Response Cache).
type UsageStats struct {
	TotalReservations  int64            `json:"total_reservations"`
	ActiveReservations int64            `json:"active_reservations"`
	CancelRatio        float64          `json:"cancel_ratio"`
	TopResources       map[string]int64 `json:"top_resources"`
	DailyActivity      []ActivityPoint  `json:"daily_activity"`
}

type ActivityPoint struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}
