package service

import (
	"context"
	"fmt"

	"github.com/xela07ax/reservahub/internal/audit"
)

// FilteredProvider описывает контракт для фильтрованного чтения аудита.
// Используем структуру Entry из пакета audit, чтобы сохранить единую
// модель данных.
type FilteredProvider interface {
	FetchFiltered(ctx context.Context, q audit.Query) ([]audit.Entry, error)
}

// RecentProvider — быстрый путь через recent-буфер.
type RecentProvider interface {
	GetRecent(ctx context.Context, limit int) ([]audit.Entry, error)
}

type AuditService struct {
	dist RecentProvider
	repo FilteredProvider
}

func NewAuditService(dist RecentProvider, repo FilteredProvider) *AuditService {
	return &AuditService{dist: dist, repo: repo}
}

// FetchLogs запрашивает события с фильтрацией. Запрос без фильтров идет
// быстрым путем через recent-буфер; любые фильтры — сразу в Postgres,
// буфер недостаточно глубок для честной выборки.
func (s *AuditService) FetchLogs(ctx context.Context, q audit.Query) ([]audit.Entry, error) {
	if q.ActorID == "" && q.Action == "" && q.EntityType == "" && q.From.IsZero() && q.To.IsZero() {
		entries, err := s.dist.GetRecent(ctx, q.Limit)
		if err != nil {
			return nil, fmt.Errorf("audit_service: failed to fetch recent: %w", err)
		}
		return entries, nil
	}

	entries, err := s.repo.FetchFiltered(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("audit_service: failed to fetch logs: %w", err)
	}
	return entries, nil
}
