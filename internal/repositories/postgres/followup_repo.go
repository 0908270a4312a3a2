package postgres

import (
	"context"
	"time"

	"github.com/niagahub/niagabot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowUpRepository interface {
	Insert(ctx context.Context, f *models.FollowUp) error
	ListPending(ctx context.Context, tenantID string, limit int) ([]models.FollowUp, error)
	ClaimDue(ctx context.Context, now, staleBefore time.Time, limit int) ([]models.FollowUp, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id string, lastError string) error
}

type followUpRepo struct {
	db *gorm.DB
}

func NewFollowUpRepo(db *gorm.DB) FollowUpRepository {
	return &followUpRepo{db: db}
}

func (r *followUpRepo) Insert(ctx context.Context, f *models.FollowUp) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *followUpRepo) ListPending(ctx context.Context, tenantID string, limit int) ([]models.FollowUp, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.FollowUp
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, models.FollowUpPending).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ClaimDue atomically claims a bounded batch of dispatchable items: due rows
// are selected FOR UPDATE SKIP LOCKED and flipped to dispatching inside one
// transaction, so a sibling worker can never claim the same row. Rows stuck
// in dispatching since before staleBefore (a worker died mid-dispatch) are
// reclaimed the same way.
func (r *followUpRepo) ClaimDue(ctx context.Context, now, staleBefore time.Time, limit int) ([]models.FollowUp, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.FollowUp
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(status = ? AND scheduled_at <= ?) OR (status = ? AND updated_at <= ?)",
				models.FollowUpPending, now, models.FollowUpDispatching, staleBefore).
			Order("scheduled_at ASC").
			Limit(limit).
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		ids := make([]string, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
		}
		if err := tx.Model(&models.FollowUp{}).
			Where("id IN ?", ids).
			Update("status", models.FollowUpDispatching).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].Status = models.FollowUpDispatching
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *followUpRepo) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.FollowUp{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.FollowUpSent,
			"sent_at":    sentAt,
			"last_error": nil,
		}).Error
}

func (r *followUpRepo) MarkFailed(ctx context.Context, id string, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&models.FollowUp{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.FollowUpFailed,
			"last_error": lastError,
		}).Error
}
