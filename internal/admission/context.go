package admission

import "context"

// Тип для ключа в контексте (избегаем коллизий)
type ctxKey string

const saturatedKey ctxKey = "admission_saturated"

// WithSaturated помечает контекст запроса флагом насыщения.
func WithSaturated(ctx context.Context) context.Context {
	return context.WithValue(ctx, saturatedKey, true)
}

// IsSaturated сообщает нижестоящим слоям (Response Cache), что система
// перегружена и лучше отдать кэш, чем идти в бизнес-логику.
func IsSaturated(ctx context.Context) bool {
	v, ok := ctx.Value(saturatedKey).(bool)
	return ok && v
}
