// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/database"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/utils"
)

type AdminService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type AdminDashboardStats struct {
	TotalUsers        int64                          `json:"total_users"`
	ActiveUsers       int64                          `json:"active_users"`
	NewUsersThisMonth int64                          `json:"new_users_this_month"`
	PendingCurators   int64                          `json:"pending_curators"`
	ProductsByStatus  map[models.ProductStatus]int64 `json:"products_by_status"`
	CompletedReviews  int64                          `json:"completed_reviews"`
	PointsAwarded     int64                          `json:"points_awarded"`
	Redemptions       int64                          `json:"redemptions"`
	TotalOrders       int64                          `json:"total_orders"`
	TotalRevenue      decimal.Decimal                `json:"total_revenue"`
	MonthlyRevenue    decimal.Decimal                `json:"monthly_revenue"`
	UserGrowth        float64                        `json:"user_growth"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	Role              *models.UserRole   `json:"role,omitempty"`
	Status            *models.UserStatus `json:"status,omitempty"`
	IsCuratorApproved *bool              `json:"is_curator_approved,omitempty"`
	CreatedAfter      *time.Time         `json:"created_after,omitempty"`
	CreatedBefore     *time.Time         `json:"created_before,omitempty"`
}

type UpdateUserRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=client seller curator admin"`
}

type CuratorApprovalRequest struct {
	Approved bool `json:"approved"`
}

type UpdateUserStatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,oneof=active suspended banned"`
	Reason string            `json:"reason" validate:"max=500"`
}

func NewAdminService(db *gorm.DB, notificationService *NotificationService) *AdminService {
	return &AdminService{
		db:                  db,
		notificationService: notificationService,
	}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats(ctx context.Context, caller Caller) (*AdminDashboardStats, error) {
	if err := Require(caller.Role, CapUserManage); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	stats := &AdminDashboardStats{ProductsByStatus: map[models.ProductStatus]int64{}}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	queries := []*gorm.DB{
		db.Model(&models.User{}).Count(&stats.TotalUsers),
		db.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&stats.ActiveUsers),
		db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth),
		db.Model(&models.User{}).
			Where("role = ? AND is_curator_approved = ?", models.RoleCurator, false).
			Count(&stats.PendingCurators),
		db.Model(&models.ProductReview{}).Where("status = ?", models.ReviewStatusCompleted).Count(&stats.CompletedReviews),
		db.Model(&models.PointsTransaction{}).
			Where("source_type = ?", models.PointsSourceProductReview).
			Select("COALESCE(SUM(amount), 0)").Scan(&stats.PointsAwarded),
		db.Model(&models.ProductRedemption{}).Count(&stats.Redemptions),
		db.Model(&models.Order{}).Count(&stats.TotalOrders),
		db.Model(&models.Order{}).
			Where("payment_status = ?", models.PaymentStatusCompleted).
			Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalRevenue),
		db.Model(&models.Order{}).
			Where("payment_status = ? AND paid_at >= ?", models.PaymentStatusCompleted, monthStart).
			Select("COALESCE(SUM(amount), 0)").Scan(&stats.MonthlyRevenue),
	}
	for _, q := range queries {
		if q.Error != nil {
			return nil, apperrors.TransactionFailure(q.Error)
		}
	}

	var byStatus []struct {
		Status models.ProductStatus
		Count  int64
	}
	if err := db.Model(&models.Product{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, apperrors.TransactionFailure(err)
	}
	for _, row := range byStatus {
		stats.ProductsByStatus[row.Status] = row.Count
	}

	var lastMonthUsers int64
	if err := db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart).
		Count(&lastMonthUsers).Error; err != nil {
		return nil, apperrors.TransactionFailure(err)
	}
	if lastMonthUsers > 0 {
		stats.UserGrowth = float64(stats.NewUsersThisMonth-lastMonthUsers) / float64(lastMonthUsers) * 100
	}

	return stats, nil
}

// User Management
func (s *AdminService) GetUsers(ctx context.Context, caller Caller, filter AdminUserFilter) ([]models.User, int64, error) {
	if err := Require(caller.Role, CapUserManage); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.User{})

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsCuratorApproved != nil {
		query = query.Where("is_curator_approved = ?", *filter.IsCuratorApproved)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	allowedSortFields := []string{"created_at", "updated_at", "username", "email", "role", "status", "curator_points"}
	var users []models.User
	total, err := paginate(query, filter.PaginationParams, allowedSortFields, &users)
	if err != nil {
		return nil, 0, apperrors.TransactionFailure(err)
	}
	return users, total, nil
}

// UpdateUserRole changes a role. Leaving the curator role clears curator approval.
func (s *AdminService) UpdateUserRole(ctx context.Context, caller Caller, userID uuid.UUID, req *UpdateUserRoleRequest) (*models.User, error) {
	if err := Require(caller.Role, CapUserManage); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if userID == caller.UserID {
		return nil, apperrors.Forbidden("admins cannot change their own role")
	}

	var user models.User
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockByID(tx, &user, userID, "user"); err != nil {
			return err
		}

		oldRole := user.Role
		updates := map[string]interface{}{"role": req.Role}
		if req.Role != models.RoleCurator {
			updates["is_curator_approved"] = false
			user.IsCuratorApproved = false
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return err
		}
		user.Role = req.Role

		return s.createAuditLog(tx, caller.UserID, "UPDATE_USER_ROLE", "user", &user.ID,
			map[string]interface{}{"role": oldRole},
			map[string]interface{}{"role": req.Role})
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"admin_id": caller.UserID,
		"user_id":  user.ID,
		"role":     user.Role,
	}).Info("User role updated")
	return &user, nil
}

// SetCuratorApproval grants or revokes the right to submit product reviews.
func (s *AdminService) SetCuratorApproval(ctx context.Context, caller Caller, userID uuid.UUID, req *CuratorApprovalRequest) (*models.User, error) {
	if err := Require(caller.Role, CapUserManage); err != nil {
		return nil, err
	}

	var user models.User
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockByID(tx, &user, userID, "user"); err != nil {
			return err
		}
		if user.Role != models.RoleCurator {
			return apperrors.InvalidState(fmt.Sprintf("user has role %s, not curator", user.Role))
		}

		old := user.IsCuratorApproved
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("is_curator_approved", req.Approved).Error; err != nil {
			return err
		}
		user.IsCuratorApproved = req.Approved

		return s.createAuditLog(tx, caller.UserID, "SET_CURATOR_APPROVAL", "user", &user.ID,
			map[string]interface{}{"is_curator_approved": old},
			map[string]interface{}{"is_curator_approved": req.Approved})
	})
	if err != nil {
		return nil, err
	}

	title := "Curator application approved"
	message := "You can now review products in the curation queue."
	if !req.Approved {
		title = "Curator approval revoked"
		message = "You can no longer submit product reviews."
	}
	s.notificationService.notifyQuietly(ctx, NotificationRequest{
		UserID:       user.ID,
		Type:         models.NotificationCuratorApproval,
		Title:        title,
		Message:      message,
		ResourceType: "user",
		ResourceID:   &user.ID,
	})
	return &user, nil
}

func (s *AdminService) UpdateUserStatus(ctx context.Context, caller Caller, userID uuid.UUID, req *UpdateUserStatusRequest) (*models.User, error) {
	if err := Require(caller.Role, CapUserManage); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var user models.User
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockByID(tx, &user, userID, "user"); err != nil {
			return err
		}
		// Prevent admins from modifying other admins
		if user.Role == models.RoleAdmin && user.ID != caller.UserID {
			return apperrors.Forbidden("cannot modify admin user status")
		}

		oldStatus := user.Status
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("status", req.Status).Error; err != nil {
			return err
		}
		user.Status = req.Status

		return s.createAuditLog(tx, caller.UserID, "UPDATE_USER_STATUS", "user", &user.ID,
			map[string]interface{}{"status": oldStatus},
			map[string]interface{}{"status": req.Status, "reason": req.Reason})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AdminService) GetAuditLogs(ctx context.Context, caller Caller, resourceType string, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	if err := Require(caller.Role, CapUserManage); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if resourceType != "" {
		query = query.Where("resource_type = ?", resourceType)
	}

	var logs []models.AuditLog
	total, err := paginate(query, params, []string{"created_at", "action"}, &logs)
	if err != nil {
		return nil, 0, apperrors.TransactionFailure(err)
	}
	return logs, total, nil
}

func (s *AdminService) createAuditLog(tx *gorm.DB, userID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, oldValues, newValues map[string]interface{}) error {
	return tx.Create(&models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    models.JSONB(oldValues),
		NewValues:    models.JSONB(newValues),
	}).Error
}
