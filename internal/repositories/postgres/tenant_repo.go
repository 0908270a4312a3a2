package postgres

import (
	"context"
	"errors"

	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TenantRepository interface {
	GetByID(ctx context.Context, tenantID string) (*models.Tenant, error)
	Upsert(ctx context.Context, t *models.Tenant) error
	Delete(ctx context.Context, tenantID string) error
}

type tenantRepo struct {
	db *gorm.DB
}

func NewTenantRepo(db *gorm.DB) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) GetByID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &t, err
}

func (r *tenantRepo) Upsert(ctx context.Context, t *models.Tenant) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"persona", "sop", "working_hours", "timezone", "followup_enabled", "followup_interval_minutes", "updated_at"}),
		}).
		Create(t).Error
}

func (r *tenantRepo) Delete(ctx context.Context, tenantID string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&models.Tenant{}).Error
}
