package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xela07ax/reservahub/internal/audit"
	"github.com/xela07ax/reservahub/internal/domain"
)

type ReservationStore interface {
	Create(ctx context.Context, res *domain.Reservation) error
	Cancel(ctx context.Context, id, userID string) error
}

// Auditor — то, что сервису нужно от распределителя аудита.
type Auditor interface {
	Record(actorID, action, entityType, entityID string, details map[string]interface{}, reqCtx *audit.RequestContext)
}

// ReservationService — мутирующие действия над бронями. Каждое успешное
// действие уходит в аудит; сбой аудита действие не откатывает и не валит.
type ReservationService struct {
	repo    ReservationStore
	auditor Auditor
}

func NewReservationService(repo ReservationStore, auditor Auditor) *ReservationService {
	return &ReservationService{repo: repo, auditor: auditor}
}

func (s *ReservationService) Create(ctx context.Context, claims *domain.Claims, req domain.CreateReservationRequest, reqCtx *audit.RequestContext) (*domain.Reservation, error) {
	if req.ResourceID == "" {
		return nil, errors.New("resource_id is required")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, errors.New("ends_at must be after starts_at")
	}

	res := &domain.Reservation{
		ID:         uuid.New().String(),
		TenantID:   claims.TenantID,
		ResourceID: req.ResourceID,
		UserID:     claims.UserID,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Status:     domain.ReservationActive,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("reservation_service: create: %w", err)
	}

	s.auditor.Record(claims.UserID, "reservation.create", "reservation", res.ID,
		map[string]interface{}{
			"resource_id": res.ResourceID,
			"starts_at":   res.StartsAt,
			"ends_at":     res.EndsAt,
		}, reqCtx)

	return res, nil
}

func (s *ReservationService) Cancel(ctx context.Context, claims *domain.Claims, id string, reqCtx *audit.RequestContext) error {
	if err := s.repo.Cancel(ctx, id, claims.UserID); err != nil {
		return fmt.Errorf("reservation_service: cancel: %w", err)
	}

	s.auditor.Record(claims.UserID, "reservation.cancel", "reservation", id, nil, reqCtx)
	return nil
}
