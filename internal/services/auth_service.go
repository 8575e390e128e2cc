// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/config"
	"github.com/javajoker/curated-market/internal/database"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/utils"
)

type AuthService struct {
	db  *gorm.DB
	cfg config.JWTConfig
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest accepts every role but admin. Curators start unapproved.
type RegisterRequest struct {
	Username    string                 `json:"username" validate:"required,username"`
	Email       string                 `json:"email" validate:"required,email"`
	Password    string                 `json:"password" validate:"required,strong_password"`
	Role        models.UserRole        `json:"role" validate:"required,oneof=client seller curator"`
	ProfileData map[string]interface{} `json:"profile_data,omitempty"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg config.JWTConfig) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var existing models.User
	err := db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error
	if err == nil {
		if existing.Email == req.Email {
			return nil, apperrors.AlreadyExists("user with this email already exists")
		}
		return nil, apperrors.AlreadyExists("username already taken")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.TransactionFailure(err)
	}

	user := &models.User{
		Username:          req.Username,
		Email:             req.Email,
		Role:              req.Role,
		Status:            models.UserStatusActive,
		IsCuratorApproved: false,
		ProfileData:       models.JSONB(req.ProfileData),
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := db.Create(user).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, apperrors.AlreadyExists("user with this email or username already exists")
		}
		return nil, apperrors.TransactionFailure(err)
	}

	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, apperrors.TransactionFailure(err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if user.Status != models.UserStatusActive {
		return nil, apperrors.Forbidden(fmt.Sprintf("account is %s", user.Status))
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).UpdateColumn("last_login_at", now).Error; err != nil {
		return nil, apperrors.TransactionFailure(err)
	}

	return s.issueTokens(&user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	subject, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	var user models.User
	if err := findByID(s.db.WithContext(ctx), &user, userID, "user"); err != nil {
		return nil, err
	}
	if user.Status != models.UserStatusActive {
		return nil, apperrors.Forbidden("account is not active")
	}

	// Role changes made by an admin take effect on the next refresh.
	return s.issueTokens(&user)
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := findByID(s.db.WithContext(ctx), &user, userID, "user"); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Username, string(user.Role), s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.AccessTokenTTL * 3600,
	}, nil
}
