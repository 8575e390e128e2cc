// internal/services/redemption_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/database"
	"github.com/javajoker/curated-market/internal/metrics"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/utils"
)

type RedemptionService struct {
	db                  *gorm.DB
	pointsService       *PointsService
	notificationService *NotificationService
}

type CreateRedeemableRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"max=5000"`
	PointsCost  int64  `json:"points_cost" validate:"required,gt=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	IsActive    *bool  `json:"is_active"`
}

type UpdateRedeemableRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	PointsCost  *int64  `json:"points_cost,omitempty" validate:"omitempty,gt=0"`
	Stock       *int    `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func NewRedemptionService(db *gorm.DB, pointsService *PointsService, notificationService *NotificationService) *RedemptionService {
	return &RedemptionService{
		db:                  db,
		pointsService:       pointsService,
		notificationService: notificationService,
	}
}

// Redeem exchanges the caller's curator points for one unit of a redeemable product.
// The user row is locked before the redeemable row; every check and write happens
// under both locks, so concurrent attempts on the last unit or the last points
// serialize and exactly one wins.
func (s *RedemptionService) Redeem(ctx context.Context, caller Caller, redeemableID uuid.UUID) (*models.ProductRedemption, error) {
	redemption, err := s.redeem(ctx, caller, redeemableID)
	metrics.Redemptions.WithLabelValues(metrics.Outcome(string(apperrors.KindOf(err)))).Inc()

	fields := logrus.Fields{
		"user_id":       caller.UserID,
		"redeemable_id": redeemableID,
	}
	if err != nil {
		logrus.WithFields(fields).WithError(err).Info("Redemption refused")
		return nil, err
	}

	fields["points_spent"] = redemption.PointsSpent
	logrus.WithFields(fields).Info("Redemption completed")

	s.notificationService.notifyQuietly(ctx, NotificationRequest{
		UserID:       caller.UserID,
		Type:         models.NotificationRedemptionCompleted,
		Title:        "Redemption completed",
		Message:      fmt.Sprintf("You redeemed %s for %d points.", redemption.RedeemableProduct.Name, redemption.PointsSpent),
		ResourceType: "product_redemption",
		ResourceID:   &redemption.ID,
	})

	return redemption, nil
}

func (s *RedemptionService) redeem(ctx context.Context, caller Caller, redeemableID uuid.UUID) (*models.ProductRedemption, error) {
	if err := Require(caller.Role, CapPointsRedeem); err != nil {
		return nil, err
	}

	var redemption *models.ProductRedemption
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var user models.User
		if err := lockByID(tx, &user, caller.UserID, "user"); err != nil {
			return err
		}
		if user.Role != models.RoleCurator && user.Role != models.RoleAdmin {
			return apperrors.Forbidden("only curators can redeem points")
		}

		var item models.RedeemableProduct
		if err := lockByID(tx, &item, redeemableID, "redeemable product"); err != nil {
			return err
		}
		if !item.IsActive {
			return apperrors.InvalidState("redeemable product is not active")
		}
		if user.CuratorPoints < item.PointsCost {
			return apperrors.InsufficientPoints(user.CuratorPoints, item.PointsCost)
		}
		if item.Stock < 1 {
			return apperrors.OutOfStock(item.Name)
		}

		redemption = &models.ProductRedemption{
			UserID:              user.ID,
			RedeemableProductID: item.ID,
			PointsSpent:         item.PointsCost,
			Status:              models.RedemptionStatusCompleted,
		}
		if err := tx.Omit(clause.Associations).Create(redemption).Error; err != nil {
			return err
		}

		result := tx.Model(&models.RedeemableProduct{}).
			Where("id = ? AND stock >= 1", item.ID).
			UpdateColumn("stock", gorm.Expr("stock - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.OutOfStock(item.Name)
		}

		if _, err := s.pointsService.DebitCurator(tx, user.ID, item.PointsCost, LedgerSource{
			Type:        models.PointsSourceRedemption,
			ID:          redemption.ID,
			Description: fmt.Sprintf("Redeemed %s", item.Name),
		}); err != nil {
			return err
		}

		item.Stock--
		redemption.RedeemableProduct = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redemption, nil
}

func (s *RedemptionService) ListCatalog(ctx context.Context, params utils.PaginationParams) ([]models.RedeemableProduct, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.RedeemableProduct{}).Where("is_active = ?", true)
	if params.Search != "" {
		term := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", term, term)
	}

	var items []models.RedeemableProduct
	total, err := paginate(query, params, []string{"created_at", "points_cost", "name", "stock"}, &items)
	if err != nil {
		return nil, 0, apperrors.TransactionFailure(err)
	}
	return items, total, nil
}

// GetRedeemable hides inactive items from everyone but admins.
func (s *RedemptionService) GetRedeemable(ctx context.Context, caller Caller, id uuid.UUID) (*models.RedeemableProduct, error) {
	var item models.RedeemableProduct
	if err := findByID(s.db.WithContext(ctx), &item, id, "redeemable product"); err != nil {
		return nil, err
	}
	if !item.IsActive && !caller.IsAdmin() {
		return nil, apperrors.NotFound("redeemable product")
	}
	return &item, nil
}

func (s *RedemptionService) CreateRedeemable(ctx context.Context, caller Caller, req *CreateRedeemableRequest) (*models.RedeemableProduct, error) {
	if err := Require(caller.Role, CapRedeemableManage); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	item := &models.RedeemableProduct{
		Name:        req.Name,
		Description: req.Description,
		PointsCost:  req.PointsCost,
		Stock:       req.Stock,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, apperrors.TransactionFailure(err)
	}
	return item, nil
}

func (s *RedemptionService) UpdateRedeemable(ctx context.Context, caller Caller, id uuid.UUID, req *UpdateRedeemableRequest) (*models.RedeemableProduct, error) {
	if err := Require(caller.Role, CapRedeemableManage); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var item models.RedeemableProduct
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockByID(tx, &item, id, "redeemable product"); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = *req.Name
			item.Name = *req.Name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
			item.Description = *req.Description
		}
		if req.PointsCost != nil {
			updates["points_cost"] = *req.PointsCost
			item.PointsCost = *req.PointsCost
		}
		if req.Stock != nil {
			updates["stock"] = *req.Stock
			item.Stock = *req.Stock
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
			item.IsActive = *req.IsActive
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.RedeemableProduct{}).Where("id = ?", item.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *RedemptionService) ListMyRedemptions(ctx context.Context, caller Caller, params utils.PaginationParams) ([]models.ProductRedemption, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ProductRedemption{}).Where("user_id = ?", caller.UserID)

	var redemptions []models.ProductRedemption
	total, err := paginate(query, params, []string{"created_at", "points_spent"}, &redemptions, "RedeemableProduct")
	if err != nil {
		return nil, 0, apperrors.TransactionFailure(err)
	}
	return redemptions, total, nil
}
