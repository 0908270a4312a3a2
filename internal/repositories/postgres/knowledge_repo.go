package postgres

import (
	"context"

	"github.com/niagahub/niagabot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type KnowledgeRepository interface {
	UpsertBatch(ctx context.Context, items []models.KnowledgeItem) error
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.KnowledgeItem, error)
	ListWithEmbeddings(ctx context.Context, tenantID string) ([]models.KnowledgeItem, error)
	DeleteByTenant(ctx context.Context, tenantID string) error
}

type knowledgeRepo struct {
	db *gorm.DB
}

func NewKnowledgeRepo(db *gorm.DB) KnowledgeRepository {
	return &knowledgeRepo{db: db}
}

func (r *knowledgeRepo) UpsertBatch(ctx context.Context, items []models.KnowledgeItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "content", "tags", "embedding", "updated_at"}),
		}).
		Create(&items).Error
}

func (r *knowledgeRepo) ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.KnowledgeItem, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.KnowledgeItem
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *knowledgeRepo) ListWithEmbeddings(ctx context.Context, tenantID string) ([]models.KnowledgeItem, error) {
	var rows []models.KnowledgeItem
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND embedding IS NOT NULL", tenantID).
		Find(&rows).Error
	return rows, err
}

func (r *knowledgeRepo) DeleteByTenant(ctx context.Context, tenantID string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&models.KnowledgeItem{}).Error
}
