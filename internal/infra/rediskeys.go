package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "reservahub"
)

// Ключи для данных (состояние)
const (
	// RedisKeyRecentActivity — bounded list последних событий аудита
	// (LPUSH + LTRIM, newest-first). Общий для всех инстансов.
	RedisKeyRecentActivity = RedisNamespace + ":audit:recent"

	// RedisKeyCachePrefix — пространство ключей сетевого яруса кэша.
	RedisKeyCachePrefix = RedisNamespace + ":cache:"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanAuditFeed — канал трансляции событий аудита для живых
	// подписчиков (дашборд). Best-effort, без гарантий доставки.
	RedisChanAuditFeed = RedisNamespace + ":audit:feed"
)

// CacheKey Генератор ключей сетевого яруса кэша
func CacheKey(key string) string {
	return fmt.Sprintf("%s%s", RedisKeyCachePrefix, key)
}
