package models

import (
	"time"

	"gorm.io/datatypes"
)

type Tenant struct {
	TenantID   string `gorm:"column:tenant_id;type:text;primaryKey" json:"tenant_id"`
	APIKeyHash string `gorm:"column:api_key_hash;type:text" json:"-"`

	// JSONB snapshots of PersonaSettings / SalesSop
	Persona datatypes.JSON `gorm:"column:persona;type:jsonb" json:"persona"`
	Sop     datatypes.JSON `gorm:"column:sop;type:jsonb" json:"sop"`

	WorkingHours            string `gorm:"column:working_hours;type:text" json:"working_hours"`
	Timezone                string `gorm:"column:timezone;type:text" json:"timezone"`
	FollowupEnabled         bool   `gorm:"column:followup_enabled" json:"followup_enabled"`
	FollowupIntervalMinutes int    `gorm:"column:followup_interval_minutes" json:"followup_interval_minutes"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Tenant) TableName() string { return "tenants" }

type PersonaSettings struct {
	Persona     string `json:"persona"`      // sales|support|custom
	StylePrompt string `json:"style_prompt"` // free-form style directive
	Tone        string `json:"tone"`
	Language    string `json:"language"` // id|en
}

func DefaultPersona() PersonaSettings {
	return PersonaSettings{
		Persona:     "sales",
		StylePrompt: "Ramah, informatif, ringkas",
		Tone:        "neutral",
		Language:    "id",
	}
}

// SopStep is one step of a tenant's sales procedure. Order is strictly
// increasing within a procedure. Triggers, when set, replace the built-in
// keyword set for this step during detection.
type SopStep struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Order       int      `json:"order"`
	Triggers    []string `json:"triggers,omitempty"`
}

type SalesSop struct {
	Steps []SopStep `json:"steps"`
}

// TenantSettings is the decoded view of a Tenant row consumed by the
// orchestration pipeline.
type TenantSettings struct {
	TenantID                string          `json:"tenant_id"`
	Persona                 PersonaSettings `json:"persona"`
	Sop                     SalesSop        `json:"sop"`
	WorkingHours            string          `json:"working_hours"`
	Timezone                string          `json:"timezone"`
	FollowupEnabled         bool            `json:"followup_enabled"`
	FollowupIntervalMinutes int             `json:"followup_interval_minutes"`
}
