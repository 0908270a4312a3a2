package mongo

import (
	"context"
	"time"

	"github.com/niagahub/niagabot/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository interface {
	Append(ctx context.Context, m *models.ChatLog) error
	ListRecent(ctx context.Context, tenantID, contactID, userID string, limit int64) ([]models.ChatLog, error)
	DeleteByContact(ctx context.Context, tenantID, contactID string) (int64, error)
}

type messageRepo struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepository {
	return &messageRepo{col: db.Collection("chat_messages")}
}

func (r *messageRepo) Append(ctx context.Context, m *models.ChatLog) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, m)
	return err
}

// ListRecent returns the newest N turns for the identity, oldest first.
func (r *messageRepo) ListRecent(ctx context.Context, tenantID, contactID, userID string, limit int64) ([]models.ChatLog, error) {
	if limit <= 0 {
		limit = 50
	}

	filter := bson.M{"tenant_id": tenantID}
	if contactID != "" {
		filter["contact_id"] = contactID
	} else {
		filter["user_id"] = userID
	}

	cur, err := r.col.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ChatLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}

	// newest-first from the cursor; callers want chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *messageRepo) DeleteByContact(ctx context.Context, tenantID, contactID string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"tenant_id": tenantID, "contact_id": contactID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
