package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/n-device/core/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserStore is the MongoDB-backed UserStore.
type MongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection(models.User{}.Collection())}
}

func (s *MongoUserStore) Get(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *MongoUserStore) Create(ctx context.Context, u *models.User) error {
	_, err := s.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MongoUserStore) UpdateProfile(ctx context.Context, userID string, patch models.UserPatch, now time.Time) (*models.User, error) {
	set := bson.M{"updated_at": now}
	if patch.FullName != nil {
		set["full_name"] = *patch.FullName
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := s.col.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, bson.M{"$set": set}, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

// MongoSessionStore is the MongoDB-backed SessionStore.
type MongoSessionStore struct {
	col *mongo.Collection
}

func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{col: db.Collection(models.Session{}.Collection())}
}

func (s *MongoSessionStore) FindByUserDevice(ctx context.Context, userID, deviceID string) (*models.Session, error) {
	var sess models.Session
	err := s.col.FindOne(ctx, bson.M{"user_id": userID, "device_id": deviceID}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &sess, nil
}

func (s *MongoSessionStore) FindByDevice(ctx context.Context, deviceID string) (*models.Session, error) {
	var sess models.Session
	err := s.col.FindOne(ctx, bson.M{"device_id": deviceID, "is_active": true}).Decode(&sess)
	if err == nil {
		return &sess, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find active session: %w", err)
	}

	// No active record; fall back to the most recent one so logout can
	// distinguish "already logged out" from "never seen".
	opts := options.FindOne().SetSort(bson.D{{Key: "last_active", Value: -1}, {Key: "created_at", Value: -1}})
	err = s.col.FindOne(ctx, bson.M{"device_id": deviceID}, opts).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &sess, nil
}

func (s *MongoSessionStore) ListActive(ctx context.Context, userID string) ([]models.Session, error) {
	sort := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	sessions, err := s.list(ctx, bson.M{"user_id": userID, "is_active": true}, sort)
	if err != nil {
		return nil, err
	}
	if len(sessions) > 0 {
		return sessions, nil
	}

	// Compatibility shim for pre-migration data: when nothing carries the
	// activity flag, unflagged records form the active set.
	return s.list(ctx, bson.M{"user_id": userID, "is_active": bson.M{"$exists": false}}, sort)
}

func (s *MongoSessionStore) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Session, error) {
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var sessions []models.Session
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}

func (s *MongoSessionStore) Insert(ctx context.Context, sess *models.Session) error {
	_, err := s.col.InsertOne(ctx, sess)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) Reactivate(ctx context.Context, userID, deviceID, sessionID, deviceName string, now time.Time) error {
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "last_active", Value: -1}, {Key: "created_at", Value: -1}})
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "device_id": deviceID},
		bson.M{
			"$set":   bson.M{"session_id": sessionID, "is_active": true, "device_name": deviceName, "last_active": now},
			"$unset": bson.M{"logged_out_at": ""},
		}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reactivate session: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) Deactivate(ctx context.Context, userID, deviceID string, now time.Time) error {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "device_id": deviceID},
		bson.M{"$set": bson.M{"is_active": false, "logged_out_at": now}})
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoSessionStore) PurgeInactive(ctx context.Context, userID, deviceID, keepSessionID string) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{
		"user_id":    userID,
		"device_id":  deviceID,
		"is_active":  false,
		"session_id": bson.M{"$ne": keepSessionID},
	})
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.DeletedCount, nil
}
