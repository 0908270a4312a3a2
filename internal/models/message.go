package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatLog is one persisted conversation turn. Immutable once written;
// ordered by created_at within a conversation.
type ChatLog struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID string             `bson:"tenant_id" json:"tenant_id"`

	ContactID string `bson:"contact_id,omitempty" json:"contact_id,omitempty"`
	UserID    string `bson:"user_id" json:"user_id"`

	Role    string `bson:"role" json:"role"` // user|assistant|system
	Content string `bson:"content" json:"content"`

	MediaURL  string `bson:"media_url,omitempty" json:"media_url,omitempty"`
	MediaType string `bson:"media_type,omitempty" json:"media_type,omitempty"`

	Metadata map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
