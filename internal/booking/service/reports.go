package service

import (
	"context"
	"fmt"

	"github.com/xela07ax/reservahub/internal/domain"
)

// StatsProvider описывает контракт для чтения агрегатов.
type StatsProvider interface {
	GetUsageStats(ctx context.Context, tenantID string) (*domain.UsageStats, error)
}

type ReportsService struct {
	repo StatsProvider
}

func NewReportsService(repo StatsProvider) *ReportsService {
	return &ReportsService{repo: repo}
}

func (s *ReportsService) GetUsageStats(ctx context.Context, tenantID string) (*domain.UsageStats, error) {
	stats, err := s.repo.GetUsageStats(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("reports_service: failed to fetch stats: %w", err)
	}
	return stats, nil
}
