package models

import (
	"time"

	"gorm.io/datatypes"
)

type Contact struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID string `gorm:"column:tenant_id;type:text;index;not null" json:"tenant_id"`
	Name     string `gorm:"column:name;type:text" json:"name"`
	Phone    string `gorm:"column:phone;type:text" json:"phone"`
	Email    string `gorm:"column:email;type:text" json:"email"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Contact) TableName() string { return "contacts" }
