package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aksjevakt/backend/internal/marketdata"
	"github.com/aksjevakt/backend/internal/models"
	"github.com/aksjevakt/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrAlertNotFound = errors.New("alert not found")
	ErrUserNotFound  = errors.New("user not found")
)

// AlertLimitError is returned when a free-tier user is at their active-alert
// cap.
type AlertLimitError struct {
	Limit int
}

func (e *AlertLimitError) Error() string {
	return fmt.Sprintf("free accounts are limited to %d active price alerts", e.Limit)
}

type AlertService interface {
	CreateAlert(userID string, alert *models.PriceAlert) error
	DeleteAlert(userID, alertID string) error
	GetAlertsByUserID(userID string) ([]*models.PriceAlert, error)
}

type alertService struct {
	alertRepo   repository.AlertRepository
	userRepo    repository.UserRepository
	quotes      marketdata.QuoteClient
	logger      *zap.Logger
	freeLimit   int
	exempt      map[string]bool
	quoteWindow time.Duration
}

func NewAlertService(
	alertRepo repository.AlertRepository,
	userRepo repository.UserRepository,
	quotes marketdata.QuoteClient,
	logger *zap.Logger,
	freeLimit int,
	exemptEmails map[string]bool,
) AlertService {
	return &alertService{
		alertRepo:   alertRepo,
		userRepo:    userRepo,
		quotes:      quotes,
		logger:      logger,
		freeLimit:   freeLimit,
		exempt:      exemptEmails,
		quoteWindow: 5 * time.Second,
	}
}

func (s *alertService) CreateAlert(userID string, alert *models.PriceAlert) error {
	if err := alert.Validate(); err != nil {
		return err
	}

	ownerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}
	user, err := s.userRepo.GetUserByID(ownerID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !user.HasPremiumAccess(time.Now(), s.exempt) {
		active, err := s.alertRepo.CountActiveByUserID(ownerID)
		if err != nil {
			return err
		}
		if active >= int64(s.freeLimit) {
			return &AlertLimitError{Limit: s.freeLimit}
		}
	}

	alert.UserID = ownerID
	alert.Active = true
	alert.Triggered = false
	alert.TriggeredAt = nil

	// Best-effort initial price for display; a missing quote never blocks
	// creation.
	ctx, cancel := context.WithTimeout(context.Background(), s.quoteWindow)
	defer cancel()
	if quote, err := s.quotes.GetQuote(ctx, alert.Symbol); err != nil {
		s.logger.Debug("initial quote unavailable", zap.String("symbol", alert.Symbol), zap.Error(err))
	} else {
		now := time.Now()
		alert.LastPrice = &quote.Price
		alert.LastCheckedAt = &now
	}

	return s.alertRepo.SaveAlert(alert)
}

// DeleteAlert removes the alert only if the caller owns it. A foreign or
// unknown id both come back as ErrAlertNotFound.
func (s *alertService) DeleteAlert(userID, alertID string) error {
	ownerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrAlertNotFound
	}
	id, err := primitive.ObjectIDFromHex(alertID)
	if err != nil {
		return ErrAlertNotFound
	}

	deleted, err := s.alertRepo.DeleteByIDAndUserID(id, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAlertNotFound
	}
	return nil
}

func (s *alertService) GetAlertsByUserID(userID string) ([]*models.PriceAlert, error) {
	ownerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.alertRepo.GetAlertsByUserID(ownerID)
}
