package admission

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xela07ax/reservahub/internal/infra"
)

func newTestController(max, thresholdPct int64) *Controller {
	return NewController(infra.AdmissionConfig{
		MaxConcurrent:              max,
		SaturationThresholdPercent: thresholdPct,
	}, infra.NewMetrics(nil))
}

func TestController(t *testing.T) {
	t.Run("acquire and release pair", func(t *testing.T) {
		c := newTestController(10, 80)

		ticket, err := c.Acquire(true)
		require.NoError(t, err)
		require.Equal(t, int64(1), c.Status().ActiveRequests)

		ticket.Release()
		require.Equal(t, int64(0), c.Status().ActiveRequests)
		require.Equal(t, int64(1), c.Status().TotalRequests)
		require.Equal(t, int64(1), c.Status().PeakRequests)
	})

	t.Run("release is exactly-once", func(t *testing.T) {
		c := newTestController(10, 80)

		ticket, err := c.Acquire(true)
		require.NoError(t, err)

		ticket.Release()
		ticket.Release()
		ticket.Release()

		require.Equal(t, int64(0), c.Status().ActiveRequests, "activeRequests must never go negative")
	})

	t.Run("hard ceiling rejects without incrementing", func(t *testing.T) {
		c := newTestController(2, 80)

		t1, err := c.Acquire(true)
		require.NoError(t, err)
		t2, err := c.Acquire(true)
		require.NoError(t, err)

		_, err = c.Acquire(true)
		require.ErrorIs(t, err, ErrCapacityExceeded)
		require.Equal(t, int64(2), c.Status().ActiveRequests)

		t1.Release()
		t2.Release()
	})

	t.Run("reads at soft threshold are marked saturated, not rejected", func(t *testing.T) {
		c := newTestController(10, 80)

		tickets := make([]*Ticket, 0, 9)
		for i := 0; i < 8; i++ {
			ticket, err := c.Acquire(true)
			require.NoError(t, err)
			require.False(t, ticket.Saturated)
			tickets = append(tickets, ticket)
		}

		// Девятый запрос видит 8 активных — порог 80% достигнут
		ticket, err := c.Acquire(true)
		require.NoError(t, err)
		require.True(t, ticket.Saturated)
		require.True(t, c.Status().Saturated)
		require.NotNil(t, c.Status().SaturatedSince)
		tickets = append(tickets, ticket)

		// Мутирующий запрос под насыщением допускается без пометки
		wt, err := c.Acquire(false)
		require.NoError(t, err)
		require.False(t, wt.Saturated)
		wt.Release()

		for _, ticket := range tickets {
			ticket.Release()
		}
		require.False(t, c.Status().Saturated)
		require.Nil(t, c.Status().SaturatedSince)
	})

	t.Run("concurrent pairs return counter to zero", func(t *testing.T) {
		c := newTestController(1000, 80)

		var wg sync.WaitGroup
		for i := 0; i < 500; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ticket, err := c.Acquire(true)
				if err != nil {
					return
				}
				ticket.Release()
			}()
		}
		wg.Wait()

		status := c.Status()
		require.Equal(t, int64(0), status.ActiveRequests)
		require.Equal(t, int64(500), status.TotalRequests)
		require.LessOrEqual(t, status.PeakRequests, int64(1000))
	})

	t.Run("150 requests against max=100 threshold=80", func(t *testing.T) {
		c := newTestController(100, 80)

		var normal, saturated, rejected int
		tickets := make([]*Ticket, 0, 100)
		for i := 0; i < 150; i++ {
			ticket, err := c.Acquire(true)
			switch {
			case err != nil:
				rejected++
			case ticket.Saturated:
				saturated++
				tickets = append(tickets, ticket)
			default:
				normal++
				tickets = append(tickets, ticket)
			}
		}

		require.Equal(t, 80, normal) // запросы 1..80: ниже порога
		require.Equal(t, 20, saturated)
		require.Equal(t, 50, rejected)
		require.Equal(t, int64(100), c.Status().ActiveRequests)

		// После освобождения слота допуск снова возможен
		tickets[0].Release()
		ticket, err := c.Acquire(true)
		require.NoError(t, err)
		ticket.Release()

		for _, tk := range tickets[1:] {
			tk.Release()
		}
	})
}
