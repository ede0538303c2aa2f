package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/admission"
)

// KeyFunc выводит ключ кэша из атрибутов запроса (identity, query).
// Пустая строка = запрос не кэшируется.
type KeyFunc func(r *http.Request) string

// envelope — то, что реально лежит в кэше: тело плюс минимум метаданных,
// чтобы воспроизвести ответ без вызова обработчика.
type envelope struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter перехватывает тело ответа по пути к клиенту.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware — cache-aside обертка над read-эндпоинтом.
//
// Попадание отдает сохраненное тело и не вызывает обработчик вовсе.
// Промах пропускает запрос дальше, перехватывает успешный ответ и
// кладет его в кэш fire-and-forget: сбой записи не валит запрос.
//
// Если Admission Controller пометил запрос флагом насыщения, любое
// имеющееся значение предпочитается походу в бизнес-логику — даже
// слегка лежалое. Если кэш пуст, запрос все равно идет дальше:
// пользователю, которого еще ни разу не обслужили, показать нечего.
func Middleware(store Store, keyFn KeyFunc, ttl time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	log := logger.Named("respcache")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			saturated := admission.IsSaturated(r.Context())

			if payload, ok := store.Get(r.Context(), key); ok {
				var env envelope
				if err := json.Unmarshal(payload, &env); err == nil {
					w.Header().Set("Content-Type", env.ContentType)
					w.Header().Set("X-Cache", "HIT")
					w.WriteHeader(env.Status)
					w.Write(env.Body)
					return
				}
				// Битая запись — чистим и идем обычным путем
				store.Delete(r.Context(), key)
			}

			if saturated {
				// Под насыщением кэша не оказалось — деваться некуда,
				// идем в бизнес-логику. Мягкий порог первые запросы
				// не защищает, это известная брешь.
				log.Debug("saturated request missed cache, falling through", zap.String("key", key))
			}

			w.Header().Set("X-Cache", "MISS")
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(cw, r)

			if cw.status != http.StatusOK || cw.buf.Len() == 0 {
				return
			}

			env := envelope{
				Status:      cw.status,
				ContentType: cw.Header().Get("Content-Type"),
				Body:        append([]byte(nil), cw.buf.Bytes()...),
			}
			payload, err := json.Marshal(env)
			if err != nil {
				return
			}

			// Заполнение кэша не держит критический путь
			go func() {
				ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 2*time.Second)
				defer cancel()
				store.Set(ctx, key, payload, ttl)
			}()
		})
	}
}

// IdentityKey строит ключ из маршрута, идентичности и query-параметров —
// разные пользователи и фильтры не делят записи.
func IdentityKey(class string, identity func(r *http.Request) string) KeyFunc {
	return func(r *http.Request) string {
		who := "anon"
		if identity != nil {
			if id := identity(r); id != "" {
				who = id
			}
		}
		q := r.URL.Query().Encode()
		if q == "" {
			return class + ":" + who
		}
		return class + ":" + who + ":" + q
	}
}
