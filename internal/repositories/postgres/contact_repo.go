package postgres

import (
	"context"
	"errors"

	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContactRepository interface {
	Upsert(ctx context.Context, c *models.Contact) error
	GetByID(ctx context.Context, tenantID, id string) (*models.Contact, error)
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.Contact, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type contactRepo struct {
	db *gorm.DB
}

func NewContactRepo(db *gorm.DB) ContactRepository {
	return &contactRepo{db: db}
}

func (r *contactRepo) Upsert(ctx context.Context, c *models.Contact) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "email", "metadata", "updated_at"}),
		}).
		Create(c).Error
}

func (r *contactRepo) GetByID(ctx context.Context, tenantID, id string) (*models.Contact, error) {
	var c models.Contact
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &c, err
}

func (r *contactRepo) ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.Contact, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.Contact
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *contactRepo) Delete(ctx context.Context, tenantID, id string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.Contact{}).Error
}
