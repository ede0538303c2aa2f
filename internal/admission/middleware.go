package admission

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/domain"
)

// rejectionBody — машиночитаемый отказ. Клиент получает достаточно
// информации для честного backoff: текущую загрузку и задержку повтора.
type rejectionBody struct {
	Error        string              `json:"error"`
	Message      string              `json:"message"`
	RetryAfter   int                 `json:"retryAfter"`
	SystemStatus domain.SystemStatus `json:"systemStatus"`
}

func isReadOnly(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Middleware встраивает контроллер в HTTP-пайплайн перед бизнес-обработчиками.
//
// Парность инкремента/декремента обеспечена структурно: Release висит
// в defer и отработает на любом пути выхода, включая панику обработчика
// (Recoverer стоит выше по цепочке) и отмену контекста.
func (c *Controller) Middleware(retryAfter int, logger *zap.Logger) func(http.Handler) http.Handler {
	log := logger.Named("admission")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			readOnly := isReadOnly(r)

			ticket, err := c.Acquire(readOnly)
			if err != nil {
				// Жесткий потолок. Read-запросам предлагаем повтор (429):
				// нагрузка спадет или прогреется кэш. Мутирующим — 503.
				status := http.StatusServiceUnavailable
				if readOnly {
					status = http.StatusTooManyRequests
				}

				body := rejectionBody{
					Error:        "capacity_exceeded",
					Message:      "system is at capacity, retry later",
					RetryAfter:   retryAfter,
					SystemStatus: c.Status(),
				}

				log.Warn("request shed",
					zap.String("path", r.URL.Path),
					zap.Int64("active", body.SystemStatus.ActiveRequests),
				)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.WriteHeader(status)
				json.NewEncoder(w).Encode(body)
				return
			}
			defer ticket.Release()

			ctx := r.Context()
			if ticket.Saturated {
				ctx = WithSaturated(ctx)
				w.Header().Set("X-System-Saturated", "true")
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
