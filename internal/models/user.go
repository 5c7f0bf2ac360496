package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserAccount struct {
	ID           primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	FullName     string             `json:"full_name" bson:"full_name"`
	Subscribed   bool               `json:"subscribed" bson:"subscribed"`
	TrialEndsAt  *time.Time         `json:"trial_ends_at,omitempty" bson:"trial_ends_at,omitempty"`
	IsActive     bool               `json:"is_active" bson:"is_active"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// HasPremiumAccess reports whether the user bypasses free-tier limits: paying
// subscribers, accounts inside their trial window, and the exempt allowlist.
func (u *UserAccount) HasPremiumAccess(now time.Time, exempt map[string]bool) bool {
	if u.Subscribed {
		return true
	}
	if exempt[strings.ToLower(u.Email)] {
		return true
	}
	return u.TrialEndsAt != nil && now.Before(*u.TrialEndsAt)
}
