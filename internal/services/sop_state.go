package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/niagahub/niagabot/internal/models"
	pgrepo "github.com/niagahub/niagabot/internal/repositories/postgres"
	"github.com/niagahub/niagabot/internal/utils"
)

type SopStateService interface {
	// GetState returns the persisted state for the identity key, or a
	// default state with no current step. Reads never create rows.
	GetState(ctx context.Context, tenantID string, contactID *string, userID string) (*models.SopState, error)
	SetState(ctx context.Context, s *models.SopState) (*models.SopState, error)
	// UpdateFromHistory is the only implicit mutation path: detection
	// output wins over stale stored state; a first contact is initialized
	// to the procedure's first step.
	UpdateFromHistory(ctx context.Context, tenantID string, contactID *string, userID string, sop models.SalesSop, history []models.Message) (*models.SopState, error)
}

type sopStateService struct {
	states  pgrepo.SopStateRepository
	machine *SopStateMachine
}

func NewSopStateService(states pgrepo.SopStateRepository, machine *SopStateMachine) SopStateService {
	return &sopStateService{states: states, machine: machine}
}

func (s *sopStateService) GetState(ctx context.Context, tenantID string, contactID *string, userID string) (*models.SopState, error) {
	const op = "SopStateService.GetState"

	if tenantID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id is required", nil)
	}
	if (contactID == nil || *contactID == "") && userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "contact_id or user_id is required", nil)
	}

	key := models.SopSubjectKey(contactID, userID)
	st, err := s.states.GetBySubject(ctx, tenantID, key)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return &models.SopState{
				TenantID:   tenantID,
				ContactID:  contactID,
				UserID:     userID,
				SubjectKey: key,
			}, nil
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get sop state", err)
	}
	return st, nil
}

func (s *sopStateService) SetState(ctx context.Context, st *models.SopState) (*models.SopState, error) {
	const op = "SopStateService.SetState"

	if st == nil || st.TenantID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id is required", nil)
	}
	if (st.ContactID == nil || *st.ContactID == "") && st.UserID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "contact_id or user_id is required", nil)
	}

	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.UpdatedAt = time.Now().UTC()

	if err := s.states.Upsert(ctx, st); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to upsert sop state", err)
	}
	return st, nil
}

func (s *sopStateService) UpdateFromHistory(ctx context.Context, tenantID string, contactID *string, userID string, sop models.SalesSop, history []models.Message) (*models.SopState, error) {
	st, err := s.GetState(ctx, tenantID, contactID, userID)
	if err != nil {
		return nil, err
	}

	if detected, ok := s.machine.DetectStep(sop, history); ok {
		if st.CurrentStep == nil || *st.CurrentStep != detected {
			st.CurrentStep = &detected
			return s.SetState(ctx, st)
		}
		return st, nil
	}

	// first contact with no detectable step: anchor at the first step
	if st.CurrentStep == nil && len(sop.Steps) > 0 {
		first := sop.Steps[0].Name
		st.CurrentStep = &first
		return s.SetState(ctx, st)
	}
	return st, nil
}
