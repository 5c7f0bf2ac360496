package service

import (
	"github.com/aksjevakt/backend/internal/models"
	"github.com/aksjevakt/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SettingsService interface {
	GetSettings(userID string) (*models.NotificationSettings, error)
	UpdateSettings(userID string, settings *models.NotificationSettings) (*models.NotificationSettings, error)
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
}

func NewSettingsService(settingsRepo repository.SettingsRepository) SettingsService {
	return &settingsService{settingsRepo: settingsRepo}
}

func (s *settingsService) GetSettings(userID string) (*models.NotificationSettings, error) {
	ownerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.settingsRepo.GetOrCreate(ownerID)
}

// UpdateSettings writes the mutable preference fields; the settings row is
// created first if the user never touched it.
func (s *settingsService) UpdateSettings(userID string, updated *models.NotificationSettings) (*models.NotificationSettings, error) {
	ownerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	current, err := s.settingsRepo.GetOrCreate(ownerID)
	if err != nil {
		return nil, err
	}

	current.EmailEnabled = updated.EmailEnabled
	current.EmailInstant = updated.EmailInstant
	current.DailyDigest = updated.DailyDigest
	if updated.MaxPerHour > 0 {
		current.MaxPerHour = updated.MaxPerHour
	}
	if updated.MaxPerDay > 0 {
		current.MaxPerDay = updated.MaxPerDay
	}
	if updated.Language != "" {
		current.Language = updated.Language
	}

	if err := s.settingsRepo.Update(current); err != nil {
		return nil, err
	}
	return current, nil
}
