package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres

	"github.com/xela07ax/reservahub/internal/domain"
)

type ReservationRepo struct {
	db *sql.DB
}

func NewReservationRepo(connString string) *ReservationRepo {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		log.Fatal(err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &ReservationRepo{db: db}
}

func (r *ReservationRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *ReservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	query := `
		INSERT INTO reservations (id, tenant_id, resource_id, user_id, starts_at, ends_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		res.ID, res.TenantID, res.ResourceID, res.UserID, res.StartsAt, res.EndsAt, res.Status,
	)
	if err != nil {
		return fmt.Errorf("postgres: create reservation: %w", err)
	}
	return nil
}

// Cancel помечает бронь отмененной. Отмена чужой брони запрещена на
// уровне запроса: WHERE сравнивает владельца.
func (r *ReservationRepo) Cancel(ctx context.Context, id, userID string) error {
	query := `
		UPDATE reservations SET status = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND status = $4`

	result, err := r.db.ExecContext(ctx, query,
		domain.ReservationCancelled, id, userID, domain.ReservationActive,
	)
	if err != nil {
		return fmt.Errorf("postgres: cancel reservation: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("postgres: reservation %s not found or not cancellable", id)
	}
	return nil
}

// GetUsageStats — агрегаты для отчетного эндпоинта. Тяжелый запрос,
// ровно поэтому он живет за Response Cache.
func (r *ReservationRepo) GetUsageStats(ctx context.Context, tenantID string) (*domain.UsageStats, error) {
	stats := &domain.UsageStats{TopResources: make(map[string]int64)}

	var cancelled int64
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM reservations
		WHERE tenant_id = $1`, tenantID).Scan(
		&stats.TotalReservations, &stats.ActiveReservations, &cancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: usage stats: %w", err)
	}
	if stats.TotalReservations > 0 {
		stats.CancelRatio = float64(cancelled) / float64(stats.TotalReservations)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT resource_id, COUNT(*) AS cnt
		FROM reservations
		WHERE tenant_id = $1
		GROUP BY resource_id
		ORDER BY cnt DESC
		LIMIT 10`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("postgres: top resources: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var cnt int64
		if err := rows.Scan(&id, &cnt); err != nil {
			return nil, err
		}
		stats.TopResources[id] = cnt
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Активность по дням за последнюю неделю
	rows, err = r.db.QueryContext(ctx, `
		SELECT TO_CHAR(created_at, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM reservations
		WHERE tenant_id = $1 AND created_at > NOW() - INTERVAL '7 days'
		GROUP BY day
		ORDER BY day`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("postgres: daily activity: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.ActivityPoint
		if err := rows.Scan(&p.Day, &p.Count); err != nil {
			return nil, err
		}
		stats.DailyActivity = append(stats.DailyActivity, p)
	}
	return stats, rows.Err()
}
