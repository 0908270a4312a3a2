package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/niagahub/niagabot/internal/models"
	pgrepo "github.com/niagahub/niagabot/internal/repositories/postgres"
	"github.com/niagahub/niagabot/internal/utils"
)

type FollowUpService interface {
	Schedule(ctx context.Context, f *models.FollowUp) (*models.FollowUp, error)
	ListPending(ctx context.Context, tenantID string, limit int) ([]models.FollowUp, error)
}

type followUpService struct {
	followups pgrepo.FollowUpRepository
}

func NewFollowUpService(followups pgrepo.FollowUpRepository) FollowUpService {
	return &followUpService{followups: followups}
}

func (s *followUpService) Schedule(ctx context.Context, f *models.FollowUp) (*models.FollowUp, error) {
	const op = "FollowUpService.Schedule"

	if f == nil || f.TenantID == "" || f.UserID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id and user_id are required", nil)
	}
	if f.ScheduledAt.IsZero() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "scheduled_at is required", nil)
	}

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Channel == "" {
		f.Channel = "web"
	}
	f.Status = models.FollowUpPending
	f.CreatedAt = time.Now().UTC()

	if err := s.followups.Insert(ctx, f); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to schedule follow-up", err)
	}
	return f, nil
}

func (s *followUpService) ListPending(ctx context.Context, tenantID string, limit int) ([]models.FollowUp, error) {
	const op = "FollowUpService.ListPending"

	if tenantID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id is required", nil)
	}
	rows, err := s.followups.ListPending(ctx, tenantID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list follow-ups", err)
	}
	return rows, nil
}
