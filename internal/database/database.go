// Package database manages the MongoDB connection lifecycle and the indexes
// the session store relies on.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/n-device/core/internal/config"
	"github.com/n-device/core/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Connect opens a MongoDB client, verifies connectivity, and ensures indexes.
func Connect(cfg *config.AppConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URL))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Mongo.Database)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return client, db, nil
}

// ensureIndexes builds the unique keys the admission engine depends on: one
// user record per user_id, one current session record per (user_id,
// device_id) pair. The compound unique index is what turns the engine's
// read-then-insert into a safe conditional write under concurrent logins.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	users := db.Collection(models.User{}.Collection())
	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	sessions := db.Collection(models.Session{}.Collection())
	_, err = sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "device_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_active", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "device_id", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("sessions indexes: %w", err)
	}
	return nil
}
