package service

import (
	"fmt"
	"time"

	"github.com/branchops/expense-service/internal/config"
	"github.com/branchops/expense-service/internal/models"
	"github.com/branchops/expense-service/internal/repository"
	"github.com/branchops/expense-service/internal/settlement"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Service handles business logic
type Service struct {
	repo     *repository.Repository
	log      *logrus.Logger
	config   *config.Config
	calendar settlement.Calendar
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		config:   cfg,
		calendar: settlement.NewCalendar(cfg.BusinessTZOffset),
	}
}

// Today returns the current calendar date in the business time zone.
func (s *Service) Today() settlement.Date {
	return s.calendar.DateOf(time.Now())
}

// Register creates a new user with hashed password
func (s *Service) Register(username, email, password string) (*models.User, error) {
	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	// Generate JWT
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// CreateBranch registers a new branch with its notification address
func (s *Service) CreateBranch(code, name, notifyEmail string) (*models.Branch, error) {
	branch := &models.Branch{
		Code:        code,
		Name:        name,
		NotifyEmail: notifyEmail,
	}

	if err := s.repo.CreateBranch(branch); err != nil {
		return nil, err
	}

	s.log.Infof("Branch created: %s (%s)", branch.Name, branch.Code)
	return branch, nil
}
