package audit

import (
	"context"
	"sync"
)

// RecentBuffer — ограниченная последовательность последних событий,
// newest-first, FIFO-вытеснение старейшего при переполнении.
// Записи стареют только вытеснением, TTL у них нет.
type RecentBuffer interface {
	Push(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// MemoryBuffer — процессная реализация кольца. Используется там, где
// Redis недоступен или не нужен (тесты, live-лента дашборда).
type MemoryBuffer struct {
	mu       sync.RWMutex
	entries  []Entry // [0] — самое свежее
	capacity int
}

func NewMemoryBuffer(capacity int) *MemoryBuffer {
	return &MemoryBuffer{capacity: capacity}
}

func (b *MemoryBuffer) Push(_ context.Context, e Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append([]Entry{e}, b.entries...)
	if len(b.entries) > b.capacity {
		b.entries = b.entries[:b.capacity]
	}
	return nil
}

func (b *MemoryBuffer) Recent(_ context.Context, limit int) ([]Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := limit
	if n > len(b.entries) {
		n = len(b.entries)
	}
	out := make([]Entry, n)
	copy(out, b.entries[:n])
	return out, nil
}

var _ RecentBuffer = (*MemoryBuffer)(nil)
