package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationSettings is one-to-one with a user and is created lazily the
// first time it is read or written.
type NotificationSettings struct {
	ID           primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	UserID       primitive.ObjectID `json:"user_id" bson:"user_id"`
	EmailEnabled bool               `json:"email_enabled" bson:"email_enabled"`
	EmailInstant bool               `json:"email_instant" bson:"email_instant"`
	DailyDigest  bool               `json:"daily_digest" bson:"daily_digest"`
	MaxPerHour   int                `json:"max_per_hour" bson:"max_per_hour"`
	MaxPerDay    int                `json:"max_per_day" bson:"max_per_day"`
	Language     string             `json:"language" bson:"language"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

func DefaultNotificationSettings(userID primitive.ObjectID) *NotificationSettings {
	return &NotificationSettings{
		UserID:       userID,
		EmailEnabled: true,
		EmailInstant: true,
		DailyDigest:  false,
		MaxPerHour:   5,
		MaxPerDay:    20,
		Language:     "nb_NO",
	}
}
