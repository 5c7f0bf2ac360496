package service

import (
	"strings"

	"github.com/aksjevakt/backend/internal/models"
	"github.com/aksjevakt/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WatchlistService interface {
	GetWatchlist(userID string) (*models.Watchlist, error)
	AddSymbol(userID, symbol string) error
	RemoveSymbol(userID, symbol string) error
}

type watchlistService struct {
	watchlistRepo repository.WatchlistRepository
}

func NewWatchlistService(watchlistRepo repository.WatchlistRepository) WatchlistService {
	return &watchlistService{watchlistRepo: watchlistRepo}
}

func (s *watchlistService) GetWatchlist(userID string) (*models.Watchlist, error) {
	ownerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.watchlistRepo.GetOrCreate(ownerID)
}

func (s *watchlistService) AddSymbol(userID, symbol string) error {
	ownerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.ErrEmptySymbol
	}
	return s.watchlistRepo.AddSymbol(ownerID, symbol)
}

func (s *watchlistService) RemoveSymbol(userID, symbol string) error {
	ownerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}
	return s.watchlistRepo.RemoveSymbol(ownerID, strings.ToUpper(strings.TrimSpace(symbol)))
}
