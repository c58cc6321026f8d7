package services

import (
	"fmt"
	"time"

	"github.com/feedbackforge/backend/internal/config"
	"github.com/feedbackforge/backend/internal/models"
	"github.com/feedbackforge/backend/internal/utils"
	"github.com/feedbackforge/backend/pkg/logger"
	"gorm.io/gorm"
)

// AuthService handles operator login for moderation and pipeline endpoints.
type AuthService struct {
	db  *gorm.DB
	cfg *config.AuthConfig
}

func NewAuthService(db *gorm.DB, cfg *config.AuthConfig) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

// EnsureAdmin creates the configured admin account if it does not exist.
func (s *AuthService) EnsureAdmin() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", s.cfg.AdminUsername).Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(s.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	user := &models.User{
		Username: s.cfg.AdminUsername,
		Password: hash,
		Role:     "admin",
	}
	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	logger.Info().Str("username", user.Username).Msg("admin user created")
	return nil
}

// Login verifies credentials and issues a JWT.
func (s *AuthService) Login(username, password string) (*models.User, string, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", fmt.Errorf("user %s: %w", username, ErrNotFound)
		}
		return nil, "", fmt.Errorf("login %s: %w", username, err)
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, "", fmt.Errorf("%w: invalid credentials", ErrValidation)
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, s.cfg.ExpireHour)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	now := time.Now()
	s.db.Model(&user).Update("last_login", now)
	user.LastLogin = &now

	return &user, token, nil
}
