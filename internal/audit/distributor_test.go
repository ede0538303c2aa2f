package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/infra"
)

type fakeDurable struct {
	mu      sync.Mutex
	entries []Entry
	fail    bool
}

func (f *fakeDurable) WriteBatch(_ context.Context, entries []Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("db down")
	}
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeDurable) FetchRecent(_ context.Context, limit int) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// newest-first, как это делает ORDER BY occurred_at DESC
	out := make([]Entry, 0, limit)
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.entries[i])
	}
	return out, nil
}

func (f *fakeDurable) stored() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Entry(nil), f.entries...)
}

func newTestDistributor(durable DurableStore, buffer RecentBuffer) *Distributor {
	return NewDistributor(durable, buffer, nil, infra.AuditConfig{
		QueueSize:     100,
		FlushInterval: 10 * time.Millisecond,
		BatchSize:     10,
	}, zap.NewNop(), infra.NewMetrics(nil))
}

func TestDistributor(t *testing.T) {
	ctx := context.Background()

	t.Run("record reaches buffer and durable store", func(t *testing.T) {
		durable := &fakeDurable{}
		buffer := NewMemoryBuffer(100)
		d := newTestDistributor(durable, buffer)
		d.Start()

		for i := 0; i < 5; i++ {
			d.Record("user-1", fmt.Sprintf("action-%d", i), "reservation", fmt.Sprintf("r-%d", i), nil, nil)
		}
		d.Stop()

		require.Len(t, durable.stored(), 5)

		entries, err := d.GetRecent(ctx, 5)
		require.NoError(t, err)
		require.Len(t, entries, 5)
	})

	t.Run("getRecent is newest-first", func(t *testing.T) {
		durable := &fakeDurable{}
		buffer := NewMemoryBuffer(100)
		d := newTestDistributor(durable, buffer)
		d.Start()
		defer d.Stop()

		for i := 0; i < 10; i++ {
			d.Record("user-1", fmt.Sprintf("action-%d", i), "", "", nil, nil)
			time.Sleep(time.Millisecond) // различимые occurred_at
		}

		var entries []Entry
		require.Eventually(t, func() bool {
			var err error
			entries, err = d.GetRecent(ctx, 10)
			return err == nil && len(entries) == 10
		}, time.Second, 10*time.Millisecond)

		for i := 1; i < len(entries); i++ {
			require.False(t, entries[i].OccurredAt.After(entries[i-1].OccurredAt),
				"entries must be ordered newest-first")
		}
		require.Equal(t, "action-9", entries[0].Action)
	})

	t.Run("empty buffer falls back to durable store", func(t *testing.T) {
		durable := &fakeDurable{}
		d := newTestDistributor(durable, NewMemoryBuffer(100))
		d.Start()

		for i := 0; i < 3; i++ {
			d.Record("user-2", fmt.Sprintf("action-%d", i), "", "", nil, nil)
		}
		d.Stop()

		// Имитируем рестарт процесса: буфер пуст, долговечный слой — нет
		cold := newTestDistributor(durable, NewMemoryBuffer(100))
		entries, err := cold.GetRecent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		require.Equal(t, "action-2", entries[0].Action)
	})

	t.Run("durable failure does not block buffer path", func(t *testing.T) {
		durable := &fakeDurable{fail: true}
		buffer := NewMemoryBuffer(100)
		d := newTestDistributor(durable, buffer)
		d.Start()

		d.Record("user-3", "action", "", "", nil, nil)
		d.Stop()

		entries, err := buffer.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("record fills source address from request context", func(t *testing.T) {
		durable := &fakeDurable{}
		d := newTestDistributor(durable, NewMemoryBuffer(100))
		d.Start()

		d.Record("user-4", "action", "reservation", "r-1",
			map[string]interface{}{"k": "v"},
			&RequestContext{SourceAddress: "10.0.0.1:1234", ClientAgent: "test-agent"})
		d.Stop()

		stored := durable.stored()
		require.Len(t, stored, 1)
		require.Equal(t, "10.0.0.1:1234", stored[0].SourceAddress)
		require.Equal(t, "test-agent", stored[0].ClientAgent)
		require.NotEmpty(t, stored[0].ID)
		require.False(t, stored[0].OccurredAt.IsZero())
	})
}

func TestMemoryBuffer(t *testing.T) {
	ctx := context.Background()

	t.Run("evicts oldest beyond capacity", func(t *testing.T) {
		b := NewMemoryBuffer(3)
		for i := 0; i < 4; i++ {
			require.NoError(t, b.Push(ctx, Entry{ID: fmt.Sprintf("e-%d", i)}))
		}

		entries, err := b.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		require.Equal(t, "e-3", entries[0].ID) // самое свежее впереди
		require.Equal(t, "e-1", entries[2].ID) // e-0 вытеснен
	})

	t.Run("recent respects limit", func(t *testing.T) {
		b := NewMemoryBuffer(10)
		for i := 0; i < 5; i++ {
			require.NoError(t, b.Push(ctx, Entry{ID: fmt.Sprintf("e-%d", i)}))
		}

		entries, err := b.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, "e-4", entries[0].ID)
	})
}
