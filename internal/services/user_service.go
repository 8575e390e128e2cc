// internal/services/user_service.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/database"
	"github.com/javajoker/curated-market/internal/models"
)

type UserService struct {
	db            *gorm.DB
	pointsService *PointsService
}

type UpdateUserProfileRequest struct {
	Username    string                 `json:"username,omitempty" validate:"omitempty,username"`
	ProfileData map[string]interface{} `json:"profile_data,omitempty"`
}

type PublicProfile struct {
	ID               uuid.UUID       `json:"id"`
	Username         string          `json:"username"`
	Role             models.UserRole `json:"role"`
	ProfileData      models.JSONB    `json:"profile_data"`
	ApprovedProducts int64           `json:"approved_products,omitempty"`
	ReviewsCompleted int64           `json:"reviews_completed,omitempty"`
	MemberSince      time.Time       `json:"member_since"`
}

func NewUserService(db *gorm.DB, pointsService *PointsService) *UserService {
	return &UserService{
		db:            db,
		pointsService: pointsService,
	}
}

func (s *UserService) GetPublicProfile(ctx context.Context, userID uuid.UUID) (*PublicProfile, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := findByID(db.Select("id", "username", "role", "profile_data", "created_at"), &user, userID, "user"); err != nil {
		return nil, err
	}

	profile := &PublicProfile{
		ID:          user.ID,
		Username:    user.Username,
		Role:        user.Role,
		ProfileData: user.ProfileData,
		MemberSince: user.CreatedAt,
	}

	switch user.Role {
	case models.RoleSeller:
		if err := db.Model(&models.Product{}).
			Where("seller_id = ? AND status = ?", user.ID, models.ProductStatusApproved).
			Count(&profile.ApprovedProducts).Error; err != nil {
			return nil, apperrors.TransactionFailure(err)
		}
	case models.RoleCurator:
		if err := db.Model(&models.ProductReview{}).
			Where("curator_id = ? AND status = ?", user.ID, models.ReviewStatusCompleted).
			Count(&profile.ReviewsCompleted).Error; err != nil {
			return nil, apperrors.TransactionFailure(err)
		}
	}

	return profile, nil
}

// GetPointsSummary re-reads balances on every call.
func (s *UserService) GetPointsSummary(ctx context.Context, userID uuid.UUID) (*PointsSummary, error) {
	return s.pointsService.GetSummary(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateUserProfileRequest) (*models.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var user models.User
	if err := findByID(db, &user, userID, "user"); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Username != "" && req.Username != user.Username {
		updates["username"] = req.Username
		user.Username = req.Username
	}
	if req.ProfileData != nil {
		if user.ProfileData == nil {
			user.ProfileData = make(models.JSONB)
		}
		// Merge with existing profile data
		for key, value := range req.ProfileData {
			user.ProfileData[key] = value
		}
		updates["profile_data"] = user.ProfileData
	}
	if len(updates) == 0 {
		return &user, nil
	}

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, apperrors.AlreadyExists("username already taken")
		}
		return nil, apperrors.TransactionFailure(err)
	}
	return &user, nil
}
