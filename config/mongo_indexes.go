package config

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// chat_messages indexes
	messages := db.Collection("chat_messages")
	_, err := messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// windowed history reads per contact
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "contact_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_tenant_contact_created"),
		},
		// anonymous (user_id-only) conversations
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_tenant_user_created"),
		},
	})
	return err
}
