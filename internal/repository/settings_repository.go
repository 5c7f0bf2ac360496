package repository

import (
	"context"
	"time"

	"github.com/aksjevakt/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SettingsRepository interface {
	GetOrCreate(userID primitive.ObjectID) (*models.NotificationSettings, error)
	Update(settings *models.NotificationSettings) error
}

type MongoSettingsRepository struct {
	collection *mongo.Collection
}

func NewSettingsRepository(client *mongo.Client, dbName, collectionName string) SettingsRepository {
	collection := client.Database(dbName).Collection(collectionName)
	return &MongoSettingsRepository{collection: collection}
}

// GetOrCreate upserts the user's settings row so there is always exactly one
// per user.
func (r *MongoSettingsRepository) GetOrCreate(userID primitive.ObjectID) (*models.NotificationSettings, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	defaults := models.DefaultNotificationSettings(userID)
	now := time.Now()
	update := bson.M{"$setOnInsert": bson.M{
		"_id":           primitive.NewObjectID(),
		"user_id":       userID,
		"email_enabled": defaults.EmailEnabled,
		"email_instant": defaults.EmailInstant,
		"daily_digest":  defaults.DailyDigest,
		"max_per_hour":  defaults.MaxPerHour,
		"max_per_day":   defaults.MaxPerDay,
		"language":      defaults.Language,
		"created_at":    now,
		"updated_at":    now,
	}}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var settings models.NotificationSettings
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&settings)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *MongoSettingsRepository) Update(settings *models.NotificationSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"email_enabled": settings.EmailEnabled,
		"email_instant": settings.EmailInstant,
		"daily_digest":  settings.DailyDigest,
		"max_per_hour":  settings.MaxPerHour,
		"max_per_day":   settings.MaxPerDay,
		"language":      settings.Language,
		"updated_at":    time.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"user_id": settings.UserID}, update)
	return err
}
