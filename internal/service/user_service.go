package service

import (
	"errors"
	"time"

	"github.com/aksjevakt/backend/internal/models"
	"github.com/aksjevakt/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const trialPeriod = 14 * 24 * time.Hour

type UserService interface {
	Signup(email, password, fullName string) (*models.UserAccount, error)
	Login(email, password string) (*models.UserAccount, error)
	GetUser(id string) (*models.UserAccount, error)
	GetAllUsers(page, limit int64) ([]*models.UserAccount, int64, error)
	HasPremiumAccess(user *models.UserAccount) bool
}

type userService struct {
	userRepo repository.UserRepository
	exempt   map[string]bool
}

func NewUserService(userRepo repository.UserRepository, exemptEmails map[string]bool) UserService {
	return &userService{userRepo: userRepo, exempt: exemptEmails}
}

func (s *userService) Signup(email, password, fullName string) (*models.UserAccount, error) {
	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	trialEnd := time.Now().Add(trialPeriod)
	user := &models.UserAccount{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Subscribed:   false,
		TrialEndsAt:  &trialEnd,
		IsActive:     true,
	}
	if err := s.userRepo.SaveUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Login(email, password string) (*models.UserAccount, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetUser(id string) (*models.UserAccount, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetUserByID(objID)
}

func (s *userService) GetAllUsers(page, limit int64) ([]*models.UserAccount, int64, error) {
	return s.userRepo.GetAllUsers(page, limit)
}

func (s *userService) HasPremiumAccess(user *models.UserAccount) bool {
	return user.HasPremiumAccess(time.Now(), s.exempt)
}
