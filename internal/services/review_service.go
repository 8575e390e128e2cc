// internal/services/review_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/config"
	"github.com/javajoker/curated-market/internal/database"
	"github.com/javajoker/curated-market/internal/metrics"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/scoring"
	"github.com/javajoker/curated-market/internal/utils"
)

type ReviewService struct {
	db                  *gorm.DB
	policy              scoring.Policy
	threshold           decimal.Decimal
	pointsService       *PointsService
	notificationService *NotificationService
}

// SubmitReviewRequest carries the eight rubric answers. A nil answer is refused.
type SubmitReviewRequest struct {
	Question1Score *int   `json:"question1_score"`
	Question2Score *int   `json:"question2_score"`
	Question3Score *int   `json:"question3_score"`
	Question4Score *int   `json:"question4_score"`
	Question5Score *int   `json:"question5_score"`
	Question6Score *int   `json:"question6_score"`
	Question7Score *int   `json:"question7_score"`
	Question8Score *int   `json:"question8_score"`
	Comments       string `json:"comments" validate:"max=5000"`
}

func (r *SubmitReviewRequest) Answers() []*int {
	return []*int{
		r.Question1Score, r.Question2Score, r.Question3Score, r.Question4Score,
		r.Question5Score, r.Question6Score, r.Question7Score, r.Question8Score,
	}
}

// ReviewOutcome is what a submission did to the review, the product and the curator's balance.
type ReviewOutcome struct {
	Review         *models.ProductReview `json:"review"`
	ProductStatus  models.ProductStatus  `json:"product_status"`
	ReviewScore    decimal.Decimal       `json:"review_score"`
	PointsDelta    int64                 `json:"points_delta"`
	CuratorBalance int64                 `json:"curator_balance"`
}

func NewReviewService(db *gorm.DB, cfg config.ReviewConfig, pointsService *PointsService, notificationService *NotificationService) *ReviewService {
	return &ReviewService{
		db:                  db,
		policy:              cfg.ScoringPolicy(),
		threshold:           cfg.AcceptanceThreshold,
		pointsService:       pointsService,
		notificationService: notificationService,
	}
}

// SubmitReview scores the rubric and upserts the caller's review of the product.
// Only a pending product takes a first review. Resubmitting adjusts the curator's
// balance by the difference from what the previous submission credited, so each
// (product, curator) pair nets exactly its latest PointsEarned.
func (s *ReviewService) SubmitReview(ctx context.Context, caller Caller, productID uuid.UUID, req *SubmitReviewRequest) (*ReviewOutcome, error) {
	if err := Require(caller.Role, CapReviewSubmit); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	scores, err := scoring.ScoresFromPointers(req.Answers())
	if err != nil {
		return nil, err
	}
	result, err := s.policy.Compute(scores)
	if err != nil {
		return nil, err
	}

	outcome := &ReviewOutcome{}
	var product models.Product
	var previousStatus models.ProductStatus

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockByID(tx, &product, productID, "product"); err != nil {
			return err
		}
		previousStatus = product.Status

		var curator models.User
		if err := findByID(tx, &curator, caller.UserID, "user"); err != nil {
			return err
		}
		if !curator.CanReview() {
			return apperrors.Forbidden("curator has not been approved to review products")
		}
		if product.SellerID == curator.ID {
			return apperrors.Forbidden("sellers cannot review their own products")
		}

		review := models.ProductReview{ProductID: product.ID, CuratorID: curator.ID}
		err := tx.Clauses(forUpdate).
			Where("product_id = ? AND curator_id = ?", product.ID, curator.ID).
			First(&review).Error
		isNew := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !isNew {
			return err
		}
		if isNew && product.Status.Terminal() {
			return apperrors.InvalidState(fmt.Sprintf("product is already %s", product.Status))
		}

		previouslyCredited := review.PointsCredited
		now := time.Now()
		review.SetScores(scores)
		review.TotalScore = result.TotalScore
		review.AverageScore = result.AverageScore
		review.PointsEarned = result.PointsEarned
		review.PointsCredited = result.PointsEarned
		review.Status = models.ReviewStatusCompleted
		review.Comments = req.Comments
		review.CompletedAt = &now

		if isNew {
			err = tx.Omit(clause.Associations).Create(&review).Error
		} else {
			err = tx.Omit(clause.Associations).Save(&review).Error
		}
		if err != nil {
			return err
		}

		source := LedgerSource{
			Type:        models.PointsSourceProductReview,
			ID:          review.ID,
			Description: fmt.Sprintf("Review of %s", product.Title),
		}
		delta := result.PointsEarned - previouslyCredited
		switch {
		case delta > 0:
			_, err = s.pointsService.CreditCurator(tx, curator.ID, delta, source)
		case delta < 0:
			_, err = s.pointsService.DebitCurator(tx, curator.ID, -delta, source)
		}
		if err != nil {
			return err
		}

		reviewScore, err := s.productReviewScore(tx, product.ID)
		if err != nil {
			return err
		}
		decision := scoring.Decide(reviewScore, s.threshold)
		if err := ApplyReviewDecision(tx, &product, decision, reviewScore); err != nil {
			return err
		}

		balance, err := s.pointsService.balance(tx, curator.ID)
		if err != nil {
			return err
		}

		outcome.Review = &review
		outcome.ProductStatus = product.Status
		outcome.ReviewScore = reviewScore
		outcome.PointsDelta = delta
		outcome.CuratorBalance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ReviewsSubmitted.WithLabelValues(string(outcome.ProductStatus)).Inc()
	if outcome.PointsDelta > 0 {
		metrics.PointsAwarded.Add(float64(outcome.PointsDelta))
	}

	logrus.WithFields(logrus.Fields{
		"product_id":     product.ID,
		"curator_id":     caller.UserID,
		"average_score":  outcome.Review.AverageScore.StringFixed(2),
		"points_delta":   outcome.PointsDelta,
		"product_status": outcome.ProductStatus,
	}).Info("Curator review completed")

	s.notifyReview(ctx, &product, previousStatus, outcome)

	return outcome, nil
}

// ApplyReviewDecision is the only code path that writes products.status. It must
// run inside the review transaction holding the product row lock. Once decided,
// the status stays and only the review score follows later resubmissions.
func ApplyReviewDecision(tx *gorm.DB, product *models.Product, decision scoring.Decision, reviewScore decimal.Decimal) error {
	next := product.Status
	updates := map[string]interface{}{
		"review_score": decimal.NewNullDecimal(reviewScore),
	}
	if !product.Status.Terminal() {
		next = models.ProductStatus(decision)
		if !product.Status.CanTransition(next) {
			return apperrors.InvalidState(fmt.Sprintf("product cannot move from %s to %s", product.Status, next))
		}
		updates["status"] = next
	}

	if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).UpdateColumns(updates).Error; err != nil {
		return err
	}

	product.Status = next
	product.ReviewScore = decimal.NewNullDecimal(reviewScore)
	return nil
}

// productReviewScore is the mean of all completed review averages for the product.
func (s *ReviewService) productReviewScore(tx *gorm.DB, productID uuid.UUID) (decimal.Decimal, error) {
	var averages []decimal.Decimal
	if err := tx.Model(&models.ProductReview{}).
		Where("product_id = ? AND status = ?", productID, models.ReviewStatusCompleted).
		Pluck("average_score", &averages).Error; err != nil {
		return decimal.Zero, err
	}
	return scoring.MeanOf(averages), nil
}

func (s *ReviewService) notifyReview(ctx context.Context, product *models.Product, previous models.ProductStatus, outcome *ReviewOutcome) {
	notificationType := models.NotificationProductReviewed
	title := "Your product was reviewed"
	if previous != outcome.ProductStatus {
		notificationType = models.NotificationStatusChanged
		title = fmt.Sprintf("Your product was %s", outcome.ProductStatus)
	}
	s.notificationService.notifyQuietly(ctx, NotificationRequest{
		UserID:       product.SellerID,
		Type:         notificationType,
		Title:        title,
		Message:      fmt.Sprintf("%s now has a review score of %s.", product.Title, outcome.ReviewScore.StringFixed(2)),
		ResourceType: "product",
		ResourceID:   &product.ID,
	})

	if outcome.PointsDelta > 0 {
		s.notificationService.notifyQuietly(ctx, NotificationRequest{
			UserID:       outcome.Review.CuratorID,
			Type:         models.NotificationPointsEarned,
			Title:        "Curator points earned",
			Message:      fmt.Sprintf("You earned %d points for reviewing %s.", outcome.PointsDelta, product.Title),
			ResourceType: "product_review",
			ResourceID:   &outcome.Review.ID,
		})
	}
}

// GetReview hides reviews of unlisted products from viewers who cannot see the product.
func (s *ReviewService) GetReview(ctx context.Context, viewer *Caller, id uuid.UUID) (*models.ProductReview, error) {
	var review models.ProductReview
	if err := findByID(preload(s.db.WithContext(ctx).Preload("Product"), "Curator"), &review, id, "review"); err != nil {
		return nil, err
	}
	if !review.Product.Status.Orderable() && !canSeeUnlisted(viewer, &review.Product) {
		return nil, apperrors.NotFound("review")
	}
	return &review, nil
}

func (s *ReviewService) ListProductReviews(ctx context.Context, viewer *Caller, productID uuid.UUID) ([]models.ProductReview, error) {
	db := s.db.WithContext(ctx)

	var product models.Product
	if err := findByID(db.Select("id", "seller_id", "status"), &product, productID, "product"); err != nil {
		return nil, err
	}
	if !product.Status.Orderable() && !canSeeUnlisted(viewer, &product) {
		return nil, apperrors.NotFound("product")
	}

	var reviews []models.ProductReview
	if err := preload(db, "Curator").
		Where("product_id = ? AND status = ?", productID, models.ReviewStatusCompleted).
		Order("completed_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, apperrors.TransactionFailure(err)
	}
	return reviews, nil
}

func (s *ReviewService) ListCuratorReviews(ctx context.Context, curatorID uuid.UUID, params utils.PaginationParams) ([]models.ProductReview, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ProductReview{}).
		Where("curator_id = ?", curatorID)

	var reviews []models.ProductReview
	total, err := paginate(query, params, []string{"created_at", "completed_at", "average_score", "points_earned"}, &reviews, "Product")
	if err != nil {
		return nil, 0, apperrors.TransactionFailure(err)
	}
	return reviews, total, nil
}

// ListReviewQueue returns pending products the caller has not reviewed and does not own.
func (s *ReviewService) ListReviewQueue(ctx context.Context, caller Caller, params utils.PaginationParams) ([]models.Product, int64, error) {
	if err := Require(caller.Role, CapReviewQueue); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("status = ?", models.ProductStatusPending).
		Where("seller_id <> ?", caller.UserID).
		Where("NOT EXISTS (SELECT 1 FROM product_reviews pr WHERE pr.product_id = products.id AND pr.curator_id = ? AND pr.deleted_at IS NULL)", caller.UserID)

	if params.Search != "" {
		term := "%" + params.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", term, term)
	}

	var products []models.Product
	total, err := paginate(query, params, []string{"created_at", "price"}, &products, "Seller")
	if err != nil {
		return nil, 0, apperrors.TransactionFailure(err)
	}
	return products, total, nil
}
