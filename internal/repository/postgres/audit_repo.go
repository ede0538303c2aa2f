package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres

	"github.com/xela07ax/reservahub/internal/audit"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(connString string) *AuditRepo {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		// В main мы проверим соединение через Ping
		log.Fatal(err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &AuditRepo{db: db}
}

// Ping проверяет доступность базы при старте
func (r *AuditRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// WriteBatch — пакетная вставка событий одной командой.
func (r *AuditRepo) WriteBatch(ctx context.Context, entries []audit.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	// Количество колонок в таблице audit_entries
	numFields := 9
	placeholderStr := ""
	vals := make([]interface{}, 0, len(entries)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, e := range entries {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9)

		details, _ := json.Marshal(e.Details)

		vals = append(vals,
			e.ID, e.ActorID, e.Action, e.EntityType, e.EntityID,
			details, e.SourceAddress, e.ClientAgent, e.OccurredAt,
		)
	}

	// Убираем лишнюю запятую в конце
	query := fmt.Sprintf(
		"INSERT INTO audit_entries (id, actor_id, action, entity_type, entity_id, details, source_address, client_agent, occurred_at) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	_, err := r.db.ExecContext(ctx, query, vals...)
	return err
}

// FetchRecent — fallback-чтение последних событий, когда recent-буфер пуст.
func (r *AuditRepo) FetchRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	return r.FetchFiltered(ctx, audit.Query{Limit: limit})
}

// FetchFiltered читает события newest-first с необязательными фильтрами
// по актору, действию, типу сущности и диапазону дат.
func (r *AuditRepo) FetchFiltered(ctx context.Context, q audit.Query) ([]audit.Entry, error) {
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, details, source_address, client_agent, occurred_at
		FROM audit_entries`

	var conds []string
	var args []interface{}
	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.ActorID != "" {
		add("actor_id = $%d", q.ActorID)
	}
	if q.Action != "" {
		add("action = $%d", q.Action)
	}
	if q.EntityType != "" {
		add("entity_type = $%d", q.EntityType)
	}
	if !q.From.IsZero() {
		add("occurred_at >= $%d", q.From)
	}
	if !q.To.IsZero() {
		add("occurred_at <= $%d", q.To)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	args = append(args, q.Limit)
	query += fmt.Sprintf(" ORDER BY occurred_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var details []byte
		if err := rows.Scan(
			&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID,
			&details, &e.SourceAddress, &e.ClientAgent, &e.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan audit entry: %w", err)
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &e.Details)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
