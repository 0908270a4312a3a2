package postgres

import (
	"context"
	"errors"

	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SopStateRepository interface {
	GetBySubject(ctx context.Context, tenantID, subjectKey string) (*models.SopState, error)
	Upsert(ctx context.Context, s *models.SopState) error
	DeleteByContact(ctx context.Context, tenantID, contactID string) error
}

type sopStateRepo struct {
	db *gorm.DB
}

func NewSopStateRepo(db *gorm.DB) SopStateRepository {
	return &sopStateRepo{db: db}
}

func (r *sopStateRepo) GetBySubject(ctx context.Context, tenantID, subjectKey string) (*models.SopState, error) {
	var s models.SopState
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND subject_key = ?", tenantID, subjectKey).
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

// Upsert replaces current_step for the identity key in a single statement.
// The unique index on (tenant_id, subject_key) makes racing writers
// last-committed-wins with no torn intermediate state.
func (r *sopStateRepo) Upsert(ctx context.Context, s *models.SopState) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "subject_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"contact_id", "user_id", "current_step", "updated_at"}),
		}).
		Create(s).Error
}

func (r *sopStateRepo) DeleteByContact(ctx context.Context, tenantID, contactID string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND contact_id = ?", tenantID, contactID).
		Delete(&models.SopState{}).Error
}
