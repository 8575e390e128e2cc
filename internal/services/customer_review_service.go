// internal/services/customer_review_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/database"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/utils"
)

type CustomerReviewService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type CreateCustomerReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type RespondToReviewRequest struct {
	Response string `json:"response" validate:"required,min=1,max=2000"`
}

func NewCustomerReviewService(db *gorm.DB, notificationService *NotificationService) *CustomerReviewService {
	return &CustomerReviewService{
		db:                  db,
		notificationService: notificationService,
	}
}

// CreateReview records a buyer's rating. It requires a completed order for the
// (caller, product) pair and allows one review per pair.
func (s *CustomerReviewService) CreateReview(ctx context.Context, caller Caller, productID uuid.UUID, req *CreateCustomerReviewRequest) (*models.CustomerReview, error) {
	if err := Require(caller.Role, CapCustomerReviewCreate); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var product models.Product
	var review *models.CustomerReview
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockByID(tx, &product, productID, "product"); err != nil {
			return err
		}

		var order models.Order
		err := tx.Where("customer_id = ? AND product_id = ? AND payment_status = ?",
			caller.UserID, product.ID, models.PaymentStatusCompleted).
			Order("paid_at DESC").
			First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Forbidden("a completed purchase is required to review this product")
		}
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.CustomerReview{}).
			Where("product_id = ? AND customer_id = ?", product.ID, caller.UserID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.AlreadyExists("you have already reviewed this product")
		}

		review = &models.CustomerReview{
			ProductID:  product.ID,
			CustomerID: caller.UserID,
			OrderID:    order.ID,
			Rating:     req.Rating,
			Comment:    req.Comment,
		}
		if err := tx.Omit(clause.Associations).Create(review).Error; err != nil {
			return err
		}

		return s.refreshRating(tx, &product)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"product_id":  product.ID,
		"customer_id": caller.UserID,
		"rating":      req.Rating,
	}).Info("Customer review created")

	s.notificationService.notifyQuietly(ctx, NotificationRequest{
		UserID:       product.SellerID,
		Type:         models.NotificationCustomerReview,
		Title:        "New customer review",
		Message:      fmt.Sprintf("%s received a %d-star review.", product.Title, req.Rating),
		ResourceType: "customer_review",
		ResourceID:   &review.ID,
	})

	return review, nil
}

// refreshRating recomputes the product's customer rating under the product row lock.
func (s *CustomerReviewService) refreshRating(tx *gorm.DB, product *models.Product) error {
	var stats struct {
		Average decimal.Decimal
		Count   int64
	}
	if err := tx.Model(&models.CustomerReview{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", product.ID).
		Scan(&stats).Error; err != nil {
		return err
	}

	rating := stats.Average.Round(2)
	if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).UpdateColumns(map[string]interface{}{
		"rating":       rating,
		"rating_count": stats.Count,
	}).Error; err != nil {
		return err
	}
	product.Rating = rating
	product.RatingCount = stats.Count
	return nil
}

// RespondToReview lets the product's seller, or an admin, answer a review once.
func (s *CustomerReviewService) RespondToReview(ctx context.Context, caller Caller, reviewID uuid.UUID, req *RespondToReviewRequest) (*models.SellerResponse, error) {
	if err := Require(caller.Role, CapSellerResponseCreate); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var review models.CustomerReview
	var response *models.SellerResponse
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockByID(tx, &review, reviewID, "customer review"); err != nil {
			return err
		}

		var product models.Product
		if err := findByID(tx, &product, review.ProductID, "product"); err != nil {
			return err
		}
		if !caller.IsAdmin() && product.SellerID != caller.UserID {
			return apperrors.Forbidden("only the product's seller can respond to this review")
		}

		var existing int64
		if err := tx.Model(&models.SellerResponse{}).Where("customer_review_id = ?", review.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.AlreadyExists("this review already has a response")
		}

		response = &models.SellerResponse{
			CustomerReviewID: review.ID,
			ResponderID:      caller.UserID,
			Response:         req.Response,
		}
		return tx.Create(response).Error
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.notifyQuietly(ctx, NotificationRequest{
		UserID:       review.CustomerID,
		Type:         models.NotificationSellerResponse,
		Title:        "The seller responded to your review",
		Message:      req.Response,
		ResourceType: "customer_review",
		ResourceID:   &review.ID,
	})

	return response, nil
}

func (s *CustomerReviewService) ListProductReviews(ctx context.Context, productID uuid.UUID, params utils.PaginationParams) ([]models.CustomerReview, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.CustomerReview{}).Where("product_id = ?", productID)

	var reviews []models.CustomerReview
	total, err := paginate(query, params, []string{"created_at", "rating"}, &reviews, "Response", "Customer")
	if err != nil {
		return nil, 0, apperrors.TransactionFailure(err)
	}
	return reviews, total, nil
}
