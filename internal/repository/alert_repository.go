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

type AlertRepository interface {
	SaveAlert(alert *models.PriceAlert) error
	GetAlertByID(id primitive.ObjectID) (*models.PriceAlert, error)
	GetAlertsByUserID(userID primitive.ObjectID) ([]*models.PriceAlert, error)
	GetActiveAlerts() ([]*models.PriceAlert, error)
	CountActiveAlerts() (int64, error)
	CountActiveByUserID(userID primitive.ObjectID) (int64, error)
	UpdateCheckState(alerts []*models.PriceAlert) error
	DeleteByIDAndUserID(id, userID primitive.ObjectID) (bool, error)
	DeleteTriggeredBefore(cutoff time.Time) (int64, error)
}

type MongoAlertRepository struct {
	collection *mongo.Collection
}

func NewAlertRepository(client *mongo.Client, dbName, collectionName string) AlertRepository {
	collection := client.Database(dbName).Collection(collectionName)
	return &MongoAlertRepository{collection: collection}
}

func (r *MongoAlertRepository) SaveAlert(alert *models.PriceAlert) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if alert.ID.IsZero() {
		alert.ID = primitive.NewObjectID()
		alert.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, alert)
	return err
}

func (r *MongoAlertRepository) GetAlertByID(id primitive.ObjectID) (*models.PriceAlert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var alert models.PriceAlert
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&alert)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &alert, err
}

// GetAlertsByUserID returns the user's alerts active-first, newest-first.
func (r *MongoAlertRepository) GetAlertsByUserID(userID primitive.ObjectID) ([]*models.PriceAlert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sort := bson.D{{Key: "active", Value: -1}, {Key: "created_at", Value: -1}}
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []*models.PriceAlert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *MongoAlertRepository) GetActiveAlerts() ([]*models.PriceAlert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []*models.PriceAlert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *MongoAlertRepository) CountActiveAlerts() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"active": true})
}

func (r *MongoAlertRepository) CountActiveByUserID(userID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "active": true})
}

// UpdateCheckState persists a cycle's worth of check results in one bulk
// write. Alerts deleted since the cycle loaded them simply match nothing.
func (r *MongoAlertRepository) UpdateCheckState(alerts []*models.PriceAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	writes := make([]mongo.WriteModel, 0, len(alerts))
	for _, alert := range alerts {
		update := bson.M{"$set": bson.M{
			"last_price":      alert.LastPrice,
			"last_checked_at": alert.LastCheckedAt,
			"active":          alert.Active,
			"triggered":       alert.Triggered,
			"triggered_at":    alert.TriggeredAt,
		}}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": alert.ID}).
			SetUpdate(update))
	}

	_, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

// DeleteByIDAndUserID deletes only when the alert belongs to the user, so a
// foreign alert id is indistinguishable from a missing one.
func (r *MongoAlertRepository) DeleteByIDAndUserID(id, userID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoAlertRepository) DeleteTriggeredBefore(cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"triggered":    true,
		"active":       false,
		"triggered_at": bson.M{"$lt": cutoff},
	}
	res, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
