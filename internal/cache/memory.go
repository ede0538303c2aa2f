package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore — процессный fallback-ярус. Потокобезопасная мапа
// с абсолютным сроком жизни у каждой записи. Не разделяется между
// инстансами — деградация всегда локальная.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // нулевое время = без срока
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get возвращает значение или ErrCacheMiss. Просроченная запись
// удаляется прямо здесь: чтение после expiresAt обязано вести себя
// как промах, без stale-чтений.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		// Ленивая зачистка просроченного
		s.mu.Lock()
		// Перепроверяем под write-lock: ключ могли успеть перезаписать
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(entry.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, ErrCacheMiss
	}

	return entry.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

// Delete идемпотентен: удаление отсутствующего ключа — не ошибка.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

var _ tierStore = (*MemoryStore)(nil)
