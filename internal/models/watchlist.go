package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Watchlist struct {
	ID        primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Symbols   []string           `json:"symbols" bson:"symbols"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
