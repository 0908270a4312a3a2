package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	FollowUpPending     = "pending"
	FollowUpDispatching = "dispatching"
	FollowUpSent        = "sent"
	FollowUpFailed      = "failed"
)

type FollowUp struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID string `gorm:"column:tenant_id;type:text;index;not null" json:"tenant_id"`
	UserID   string `gorm:"column:user_id;type:text;not null" json:"user_id"`
	Reason   string `gorm:"column:reason;type:text" json:"reason"`
	Channel  string `gorm:"column:channel;type:text" json:"channel"`

	ScheduledAt time.Time      `gorm:"column:scheduled_at;type:timestamptz;index" json:"scheduled_at"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	Status    string     `gorm:"column:status;type:text;index;default:pending" json:"status"`
	LastError *string    `gorm:"column:last_error;type:text" json:"last_error,omitempty"`
	SentAt    *time.Time `gorm:"column:sent_at;type:timestamptz" json:"sent_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (FollowUp) TableName() string { return "followups" }
