package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// KnowledgeItem is one retrievable knowledge-base snippet owned by a tenant.
// Items without an embedding exist but are excluded from similarity ranking.
type KnowledgeItem struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID string `gorm:"column:tenant_id;type:text;index;not null" json:"tenant_id"`
	Title    string `gorm:"column:title;type:text" json:"title"`
	Content  string `gorm:"column:content;type:text" json:"content"`

	Tags pq.StringArray `gorm:"column:tags;type:text[]" json:"tags"`

	// pgvector; dimension matches text-embedding-3-small
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(1536)" json:"-"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (KnowledgeItem) TableName() string { return "knowledge_items" }
