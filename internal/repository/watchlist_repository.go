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

type WatchlistRepository interface {
	GetOrCreate(userID primitive.ObjectID) (*models.Watchlist, error)
	AddSymbol(userID primitive.ObjectID, symbol string) error
	RemoveSymbol(userID primitive.ObjectID, symbol string) error
}

type MongoWatchlistRepository struct {
	collection *mongo.Collection
}

func NewWatchlistRepository(client *mongo.Client, dbName, collectionName string) WatchlistRepository {
	collection := client.Database(dbName).Collection(collectionName)
	return &MongoWatchlistRepository{collection: collection}
}

func (r *MongoWatchlistRepository) GetOrCreate(userID primitive.ObjectID) (*models.Watchlist, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{"$setOnInsert": bson.M{
		"_id":        primitive.NewObjectID(),
		"user_id":    userID,
		"symbols":    []string{},
		"updated_at": time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var watchlist models.Watchlist
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&watchlist)
	if err != nil {
		return nil, err
	}
	return &watchlist, nil
}

func (r *MongoWatchlistRepository) AddSymbol(userID primitive.ObjectID, symbol string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$addToSet": bson.M{"symbols": symbol},
		"$set":      bson.M{"updated_at": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	return err
}

func (r *MongoWatchlistRepository) RemoveSymbol(userID primitive.ObjectID, symbol string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$pull": bson.M{"symbols": symbol},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	return err
}
