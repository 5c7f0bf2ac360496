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

type LogRepository interface {
	SaveLog(entry *models.LogEntry) error
	GetAllLogs(page, limit int) ([]*models.LogEntry, error)
	GetLogsByUserID(userID primitive.ObjectID, page, limit int) ([]*models.LogEntry, error)
}

type MongoLogRepository struct {
	collection *mongo.Collection
}

func NewLogRepository(client *mongo.Client, dbName, collectionName string) LogRepository {
	collection := client.Database(dbName).Collection(collectionName)
	return &MongoLogRepository{collection: collection}
}

func (r *MongoLogRepository) SaveLog(entry *models.LogEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry.ID = primitive.NewObjectID()
	entry.Timestamp = time.Now()
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *MongoLogRepository) GetAllLogs(page, limit int) ([]*models.LogEntry, error) {
	return r.findLogs(bson.M{}, page, limit)
}

func (r *MongoLogRepository) GetLogsByUserID(userID primitive.ObjectID, page, limit int) ([]*models.LogEntry, error) {
	return r.findLogs(bson.M{"user_id": userID}, page, limit)
}

func (r *MongoLogRepository) findLogs(filter bson.M, page, limit int) ([]*models.LogEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	skip := (page - 1) * limit
	findOptions := options.Find().SetSort(bson.M{"timestamp": -1}).SetSkip(int64(skip)).SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*models.LogEntry
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
