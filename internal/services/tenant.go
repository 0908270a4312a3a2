package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"github.com/niagahub/niagabot/internal/cache"
	"github.com/niagahub/niagabot/internal/models"
	pgrepo "github.com/niagahub/niagabot/internal/repositories/postgres"
	"github.com/niagahub/niagabot/internal/utils"
)

const settingsCacheTTL = 5 * time.Minute

func settingsCacheKey(tenantID string) string { return "tenant:settings:" + tenantID }

type TenantService interface {
	GetSettings(ctx context.Context, tenantID string) (*models.TenantSettings, error)
	// UpsertSettings creates or replaces a tenant's configuration. On first
	// create the plaintext API key is returned once; afterwards it is empty.
	UpsertSettings(ctx context.Context, settings models.TenantSettings) (*models.TenantSettings, string, error)
	VerifyAPIKey(ctx context.Context, tenantID, key string) error
}

type tenantService struct {
	tenants pgrepo.TenantRepository
	cache   cache.Cache
}

func NewTenantService(tenants pgrepo.TenantRepository, c cache.Cache) TenantService {
	return &tenantService{tenants: tenants, cache: c}
}

func (s *tenantService) GetSettings(ctx context.Context, tenantID string) (*models.TenantSettings, error) {
	const op = "TenantService.GetSettings"

	if tenantID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id is required", nil)
	}

	if s.cache != nil {
		var cached models.TenantSettings
		if hit, err := s.cache.GetJSON(ctx, settingsCacheKey(tenantID), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	row, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "tenant not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get tenant", err)
	}

	settings, err := decodeSettings(row)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to decode tenant settings", err)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, settingsCacheKey(tenantID), settings, settingsCacheTTL)
	}
	return settings, nil
}

func (s *tenantService) UpsertSettings(ctx context.Context, settings models.TenantSettings) (*models.TenantSettings, string, error) {
	const op = "TenantService.UpsertSettings"

	if settings.TenantID == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "tenant_id is required", nil)
	}
	if err := validateSop(settings.Sop); err != nil {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, err.Error(), nil)
	}
	if settings.Persona == (models.PersonaSettings{}) {
		settings.Persona = models.DefaultPersona()
	}

	personaJSON, err := json.Marshal(settings.Persona)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to encode persona", err)
	}
	sopJSON, err := json.Marshal(settings.Sop)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to encode sop", err)
	}

	now := time.Now().UTC()
	row := &models.Tenant{
		TenantID:                settings.TenantID,
		Persona:                 datatypes.JSON(personaJSON),
		Sop:                     datatypes.JSON(sopJSON),
		WorkingHours:            settings.WorkingHours,
		Timezone:                settings.Timezone,
		FollowupEnabled:         settings.FollowupEnabled,
		FollowupIntervalMinutes: settings.FollowupIntervalMinutes,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	// issue an API key only on first create; the hash column is excluded
	// from conflict updates so rotation stays an explicit operation
	plainKey := ""
	if _, err := s.tenants.GetByID(ctx, settings.TenantID); errors.Is(err, utils.ErrNotFound) {
		plainKey = utils.NewAPIKey()
		hash, herr := utils.HashAPIKey(plainKey)
		if herr != nil {
			return nil, "", utils.E(utils.CodeInternal, op, "failed to hash api key", herr)
		}
		row.APIKeyHash = hash
	} else if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to check tenant existence", err)
	}

	if err := s.tenants.Upsert(ctx, row); err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to upsert tenant", err)
	}

	if s.cache != nil {
		_ = s.cache.Del(ctx, settingsCacheKey(settings.TenantID))
	}
	return &settings, plainKey, nil
}

func (s *tenantService) VerifyAPIKey(ctx context.Context, tenantID, key string) error {
	const op = "TenantService.VerifyAPIKey"

	if tenantID == "" || key == "" {
		return utils.E(utils.CodeUnauthorized, op, "missing tenant credentials", nil)
	}

	row, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeUnauthorized, op, "unknown tenant", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load tenant", err)
	}

	if utils.CheckAPIKey(row.APIKeyHash, key) != nil {
		return utils.E(utils.CodeUnauthorized, op, "invalid api key", nil)
	}
	return nil
}

func decodeSettings(row *models.Tenant) (*models.TenantSettings, error) {
	out := &models.TenantSettings{
		TenantID:                row.TenantID,
		WorkingHours:            row.WorkingHours,
		Timezone:                row.Timezone,
		FollowupEnabled:         row.FollowupEnabled,
		FollowupIntervalMinutes: row.FollowupIntervalMinutes,
	}
	if len(row.Persona) > 0 {
		if err := json.Unmarshal(row.Persona, &out.Persona); err != nil {
			return nil, err
		}
	}
	if len(row.Sop) > 0 {
		if err := json.Unmarshal(row.Sop, &out.Sop); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func validateSop(sop models.SalesSop) error {
	lastOrder := 0
	for _, step := range sop.Steps {
		if step.Name == "" {
			return errors.New("sop step name must not be empty")
		}
		if step.Order <= lastOrder {
			return errors.New("sop step order must be strictly increasing")
		}
		lastOrder = step.Order
	}
	return nil
}
