package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AlertDirection string

const (
	AlertDirectionAbove AlertDirection = "above"
	AlertDirectionBelow AlertDirection = "below"
)

var (
	ErrEmptySymbol        = errors.New("symbol is required")
	ErrInvalidDirection   = errors.New("direction must be above or below")
	ErrInvalidTargetPrice = errors.New("target price must be positive")
)

// PriceAlert fires at most once: the first cycle that observes its condition
// true flips it to triggered and deactivates it.
type PriceAlert struct {
	ID             primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"user_id" bson:"user_id"`
	Symbol         string             `json:"symbol" bson:"symbol"`
	Direction      AlertDirection     `json:"direction" bson:"direction"`
	TargetPrice    float64            `json:"target_price" bson:"target_price"`
	LastPrice      *float64           `json:"last_price,omitempty" bson:"last_price,omitempty"`
	Active         bool               `json:"active" bson:"active"`
	Triggered      bool               `json:"triggered" bson:"triggered"`
	EmailEnabled   bool               `json:"email_enabled" bson:"email_enabled"`
	BrowserEnabled bool               `json:"browser_enabled" bson:"browser_enabled"`
	Notes          string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	TriggeredAt    *time.Time         `json:"triggered_at,omitempty" bson:"triggered_at,omitempty"`
	LastCheckedAt  *time.Time         `json:"last_checked_at,omitempty" bson:"last_checked_at,omitempty"`
}

// Validate normalizes the symbol to uppercase and checks the invariants that
// must hold before an alert is persisted.
func (a *PriceAlert) Validate() error {
	a.Symbol = strings.ToUpper(strings.TrimSpace(a.Symbol))
	if a.Symbol == "" {
		return ErrEmptySymbol
	}
	if a.Direction != AlertDirectionAbove && a.Direction != AlertDirectionBelow {
		return ErrInvalidDirection
	}
	if a.TargetPrice <= 0 {
		return ErrInvalidTargetPrice
	}
	return nil
}

// CheckAndTrigger records a freshly observed price and reports whether the
// alert fired on this observation. Already-triggered alerts only update their
// check bookkeeping; they never fire again.
func (a *PriceAlert) CheckAndTrigger(price float64, now time.Time) bool {
	a.LastPrice = &price
	a.LastCheckedAt = &now

	if a.Triggered || !a.Active {
		return false
	}

	var hit bool
	switch a.Direction {
	case AlertDirectionAbove:
		hit = price >= a.TargetPrice
	case AlertDirectionBelow:
		hit = price <= a.TargetPrice
	}
	if !hit {
		return false
	}

	a.Triggered = true
	a.Active = false
	a.TriggeredAt = &now
	return true
}
