package models

import (
	"time"

	"gorm.io/gorm"
)

// SopState tracks a contact's position in the tenant's sales procedure.
// Exactly one row exists per identity key: (tenant_id, contact_id) when a
// contact identity is known, else (tenant_id, user_id). SubjectKey
// materializes that key so upserts conflict on a single unique index.
type SopState struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID string `gorm:"column:tenant_id;type:text;uniqueIndex:uniq_tenant_subject;not null" json:"tenant_id"`

	ContactID *string `gorm:"column:contact_id;type:uuid;index" json:"contact_id,omitempty"`
	UserID    string  `gorm:"column:user_id;type:text" json:"user_id,omitempty"`

	SubjectKey string `gorm:"column:subject_key;type:text;uniqueIndex:uniq_tenant_subject;not null" json:"-"`

	CurrentStep *string `gorm:"column:current_step;type:text" json:"current_step,omitempty"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (SopState) TableName() string { return "sop_states" }

func (s *SopState) BeforeSave(tx *gorm.DB) error {
	s.SubjectKey = SopSubjectKey(s.ContactID, s.UserID)
	return nil
}

// SopSubjectKey prefers the contact identity over the anonymous user id.
func SopSubjectKey(contactID *string, userID string) string {
	if contactID != nil && *contactID != "" {
		return "contact:" + *contactID
	}
	return "user:" + userID
}
