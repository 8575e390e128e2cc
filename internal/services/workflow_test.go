// internal/services/workflow_test.go
package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/config"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/testutil"
	"github.com/javajoker/curated-market/internal/utils"
)

type WorkflowTestSuite struct {
	suite.Suite
	db  *gorm.DB
	ctx context.Context

	points          *PointsService
	notifications   *NotificationService
	reviews         *ReviewService
	redemptions     *RedemptionService
	orders          *OrderService
	customerReviews *CustomerReviewService
	products        *ProductService
	admin           *AdminService
}

func (suite *WorkflowTestSuite) SetupSuite() {
	suite.db = testutil.SetupTestPostgres(suite.T())
	suite.ctx = context.Background()

	suite.points = NewPointsService(suite.db)
	suite.notifications = NewNotificationService(suite.db)
	suite.reviews = NewReviewService(suite.db, config.ReviewConfig{
		RubricMinScore:      0,
		RubricMaxScore:      5,
		PointsMultiplier:    100,
		AcceptanceThreshold: decimal.RequireFromString("3.00"),
	}, suite.points, suite.notifications)
	suite.redemptions = NewRedemptionService(suite.db, suite.points, suite.notifications)
	suite.orders = NewOrderService(suite.db, config.OrderConfig{RestockOnCancel: true}, suite.notifications)
	suite.customerReviews = NewCustomerReviewService(suite.db, suite.notifications)
	suite.products = NewProductService(suite.db)
	suite.admin = NewAdminService(suite.db, suite.notifications)
}

func (suite *WorkflowTestSuite) SetupTest() {
	testutil.Reset(suite.T(), suite.db)
}

func (suite *WorkflowTestSuite) createUser(role models.UserRole, approved bool, points int64) Caller {
	name := fmt.Sprintf("%s_%s", role, uuid.NewString()[:8])
	user := &models.User{
		Username:          name,
		Email:             name + "@example.com",
		PasswordHash:      "not-a-real-hash",
		Role:              role,
		Status:            models.UserStatusActive,
		IsCuratorApproved: approved,
		CuratorPoints:     points,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return Caller{UserID: user.ID, Role: role}
}

func (suite *WorkflowTestSuite) createProduct(seller Caller, stock int) *models.Product {
	product, err := suite.products.CreateProduct(suite.ctx, seller, &CreateProductRequest{
		Title:       "Notion Planner Kit",
		Description: "A digital planning template bundle",
		Category:    "templates",
		Price:       decimal.RequireFromString("19.99"),
		Stock:       stock,
		Tags:        []string{"notion", "planner"},
	})
	suite.Require().NoError(err)
	suite.Equal(models.ProductStatusPending, product.Status)
	return product
}

func (suite *WorkflowTestSuite) createRedeemable(cost int64, stock int) *models.RedeemableProduct {
	item := &models.RedeemableProduct{Name: "Sticker Pack " + uuid.NewString()[:6], PointsCost: cost, Stock: stock, IsActive: true}
	suite.Require().NoError(suite.db.Create(item).Error)
	return item
}

func (suite *WorkflowTestSuite) reload(dest interface{}, id uuid.UUID) {
	suite.Require().NoError(suite.db.First(dest, "id = ?", id).Error)
}

func rubric(scores ...int) *SubmitReviewRequest {
	p := make([]*int, len(scores))
	for i := range scores {
		p[i] = &scores[i]
	}
	req := &SubmitReviewRequest{Comments: "solid"}
	fields := []**int{
		&req.Question1Score, &req.Question2Score, &req.Question3Score, &req.Question4Score,
		&req.Question5Score, &req.Question6Score, &req.Question7Score, &req.Question8Score,
	}
	for i, f := range fields {
		if i < len(p) {
			*f = p[i]
		}
	}
	return req
}

func (suite *WorkflowTestSuite) ledgerSum(userID uuid.UUID) int64 {
	var sum int64
	suite.Require().NoError(suite.db.Model(&models.PointsTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error)
	return sum
}

func (suite *WorkflowTestSuite) TestReviewApprovesProductAndCreditsCurator() {
	seller := suite.createUser(models.RoleSeller, false, 0)
	curator := suite.createUser(models.RoleCurator, true, 0)
	product := suite.createProduct(seller, 5)

	outcome, err := suite.reviews.SubmitReview(suite.ctx, curator, product.ID, rubric(4, 5, 5, 4, 5, 4, 5, 4))
	suite.Require().NoError(err)

	suite.Equal(36, outcome.Review.TotalScore)
	suite.Equal("4.50", outcome.Review.AverageScore.StringFixed(2))
	suite.Equal(int64(450), outcome.Review.PointsEarned)
	suite.Equal(models.ReviewStatusCompleted, outcome.Review.Status)
	suite.Equal(models.ProductStatusApproved, outcome.ProductStatus)
	suite.Equal(int64(450), outcome.PointsDelta)
	suite.Equal(int64(450), outcome.CuratorBalance)

	var stored models.Product
	suite.reload(&stored, product.ID)
	suite.Equal(models.ProductStatusApproved, stored.Status)
	suite.True(stored.ReviewScore.Valid)
	suite.Equal("4.50", stored.ReviewScore.Decimal.StringFixed(2))

	var user models.User
	suite.reload(&user, curator.UserID)
	suite.Equal(int64(450), user.CuratorPoints)
	suite.Equal(user.CuratorPoints, suite.ledgerSum(curator.UserID))

	unread, err := suite.notifications.UnreadCount(suite.ctx, seller.UserID)
	suite.Require().NoError(err)
	suite.GreaterOrEqual(unread, int64(1))
}

func (suite *WorkflowTestSuite) TestReviewBelowThresholdRejects() {
	seller := suite.createUser(models.RoleSeller, false, 0)
	curator := suite.createUser(models.RoleCurator, true, 0)
	product := suite.createProduct(seller, 5)

	outcome, err := suite.reviews.SubmitReview(suite.ctx, curator, product.ID, rubric(2, 3, 2, 3, 2, 3, 2, 3))
	suite.Require().NoError(err)
	suite.Equal("2.50", outcome.Review.AverageScore.StringFixed(2))
	suite.Equal(models.ProductStatusRejected, outcome.ProductStatus)
	suite.Equal(int64(250), outcome.CuratorBalance)

	_, err = suite.orders.PlaceOrder(suite.ctx, suite.createUser(models.RoleClient, false, 0), product.ID,
		&PlaceOrderRequest{PaymentMethod: "credit_card"})
	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *WorkflowTestSuite) TestResubmittingIdenticalReviewIsIdempotent() {
	seller := suite.createUser(models.RoleSeller, false, 0)
	curator := suite.createUser(models.RoleCurator, true, 0)
	product := suite.createProduct(seller, 5)

	for i := 0; i < 3; i++ {
		_, err := suite.reviews.SubmitReview(suite.ctx, curator, product.ID, rubric(4, 5, 5, 4, 5, 4, 5, 4))
		suite.Require().NoError(err)
	}

	var count int64
	suite.db.Model(&models.ProductReview{}).Where("product_id = ?", product.ID).Count(&count)
	suite.Equal(int64(1), count)

	var user models.User
	suite.reload(&user, curator.UserID)
	suite.Equal(int64(450), user.CuratorPoints)
	suite.Equal(int64(450), suite.ledgerSum(curator.UserID))
}

func (suite *WorkflowTestSuite) TestResubmissionAdjustsByDelta() {
	seller := suite.createUser(models.RoleSeller, false, 0)
	curator := suite.createUser(models.RoleCurator, true, 0)
	product := suite.createProduct(seller, 5)

	_, err := suite.reviews.SubmitReview(suite.ctx, curator, product.ID, rubric(4, 5, 5, 4, 5, 4, 5, 4))
	suite.Require().NoError(err)

	outcome, err := suite.reviews.SubmitReview(suite.ctx, curator, product.ID, rubric(2, 2, 2, 2, 2, 2, 2, 2))
	suite.Require().NoError(err)
	suite.Equal(int64(-250), outcome.PointsDelta)
	suite.Equal(int64(200), outcome.CuratorBalance)
	suite.Equal(models.ProductStatusApproved, outcome.ProductStatus)

	var stored models.Product
	suite.reload(&stored, product.ID)
	suite.Equal(models.ProductStatusApproved, stored.Status)
	suite.Equal("2.00", stored.ReviewScore.Decimal.StringFixed(2))

	suite.Equal(int64(200), suite.ledgerSum(curator.UserID))
}

func (suite *WorkflowTestSuite) TestNegativeDeltaAfterSpendingRollsBack() {
	seller := suite.createUser(models.RoleSeller, false, 0)
	curator := suite.createUser(models.RoleCurator, true, 0)
	product := suite.createProduct(seller, 5)
	item := suite.createRedeemable(300, 1)

	_, err := suite.reviews.SubmitReview(suite.ctx, curator, product.ID, rubric(4, 5, 5, 4, 5, 4, 5, 4))
	suite.Require().NoError(err)
	_, err = suite.redemptions.Redeem(suite.ctx, curator, item.ID)
	suite.Require().NoError(err)

	_, err = suite.reviews.SubmitReview(suite.ctx, curator, product.ID, rubric(2, 2, 2, 2, 2, 2, 2, 2))
	suite.ErrorIs(err, apperrors.ErrInsufficientPoints)

	var review models.ProductReview
	suite.Require().NoError(suite.db.Where("product_id = ?", product.ID).First(&review).Error)
	suite.Equal("4.50", review.AverageScore.StringFixed(2))

	var stored models.Product
	suite.reload(&stored, product.ID)
	suite.Equal(models.ProductStatusApproved, stored.Status)

	var user models.User
	suite.reload(&user, curator.UserID)
	suite.Equal(int64(150), user.CuratorPoints)
	suite.Equal(int64(150), suite.ledgerSum(curator.UserID))
}

func (suite *WorkflowTestSuite) TestDecidedProductRefusesNewCurators() {
	seller := suite.createUser(models.RoleSeller, false, 0)
	first := suite.createUser(models.RoleCurator, true, 0)
	second := suite.createUser(models.RoleCurator, true, 0)

	approved := suite.createProduct(seller, 5)
	_, err := suite.reviews.SubmitReview(suite.ctx, first, approved.ID, rubric(4, 4, 4, 4, 4, 4, 4, 4))
	suite.Require().NoError(err)

	_, err = suite.reviews.SubmitReview(suite.ctx, second, approved.ID, rubric(1, 1, 1, 1, 1, 1, 1, 1))
	suite.ErrorIs(err, apperrors.ErrInvalidState)

	var stored models.Product
	suite.reload(&stored, approved.ID)
	suite.Equal(models.ProductStatusApproved, stored.Status)
	suite.Equal("4.00", stored.ReviewScore.Decimal.StringFixed(2))

	rejected := suite.createProduct(seller, 5)
	_, err = suite.reviews.SubmitReview(suite.ctx, first, rejected.ID, rubric(1, 1, 1, 1, 1, 1, 1, 1))
	suite.Require().NoError(err)

	_, err = suite.reviews.SubmitReview(suite.ctx, second, rejected.ID, rubric(5, 5, 5, 5, 5, 5, 5, 5))
	suite.ErrorIs(err, apperrors.ErrInvalidState)

	suite.reload(&stored, rejected.ID)
	suite.Equal(models.ProductStatusRejected, stored.Status)

	var user models.User
	suite.reload(&user, second.UserID)
	suite.Zero(user.CuratorPoints)
	suite.Zero(suite.ledgerSum(second.UserID))

	var count int64
	suite.db.Model(&models.ProductReview{}).Where("curator_id = ?", second.UserID).Count(&count)
	suite.Zero(count)
}

func (suite *WorkflowTestSuite) TestResubmissionNeverFlipsDecision() {
	seller := suite.createUser(models.RoleSeller, false, 0)
	curator := suite.createUser(models.RoleCurator, true, 0)
	product := suite.createProduct(seller, 5)

	_, err := suite.reviews.SubmitReview(suite.ctx, curator, product.ID, rubric(1, 1, 1, 1, 1, 1, 1, 1))
	suite.Require().NoError(err)

	outcome, err := suite.reviews.SubmitReview(suite.ctx, curator, product.ID, rubric(5, 5, 5, 5, 5, 5, 5, 5))
	suite.Require().NoError(err)
	suite.Equal(models.ProductStatusRejected, outcome.ProductStatus)
	suite.Equal("5.00", outcome.ReviewScore.StringFixed(2))
	suite.Equal(int64(500), outcome.CuratorBalance)
}

func (suite *WorkflowTestSuite) TestTenPointRubricFitsScoreColumns() {
	reviews := NewReviewService(suite.db, config.ReviewConfig{
		RubricMinScore:      0,
		RubricMaxScore:      10,
		PointsMultiplier:    100,
		AcceptanceThreshold: decimal.NewFromInt(6),
	}, suite.points, suite.notifications)

	seller := suite.createUser(models.RoleSeller, false, 0)
	curator := suite.createUser(models.RoleCurator, true, 0)
	product := suite.createProduct(seller, 5)

	outcome, err := reviews.SubmitReview(suite.ctx, curator, product.ID, rubric(10, 10, 10, 10, 10, 10, 10, 10))
	suite.Require().NoError(err)
	suite.Equal(models.ProductStatusApproved, outcome.ProductStatus)

	var stored models.Product
	suite.reload(&stored, product.ID)
	suite.Equal("10.00", stored.ReviewScore.Decimal.StringFixed(2))
}

func (suite *WorkflowTestSuite) TestReviewReadsFollowProductVisibility() {
	seller := suite.createUser(models.RoleSeller, false, 0)
	curator := suite.createUser(models.RoleCurator, true, 0)
	client := suite.createUser(models.RoleClient, false, 0)

	rejected := suite.createProduct(seller, 5)
	outcome, err := suite.reviews.SubmitReview(suite.ctx, curator, rejected.ID, rubric(1, 1, 1, 1, 1, 1, 1, 1))
	suite.Require().NoError(err)

	_, err = suite.reviews.ListProductReviews(suite.ctx, nil, rejected.ID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, err = suite.reviews.ListProductReviews(suite.ctx, &client, rejected.ID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, err = suite.reviews.GetReview(suite.ctx, &client, outcome.Review.ID)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	reviews, err := suite.reviews.ListProductReviews(suite.ctx, &seller, rejected.ID)
	suite.Require().NoError(err)
	suite.Len(reviews, 1)
	review, err := suite.reviews.GetReview(suite.ctx, &seller, outcome.Review.ID)
	suite.Require().NoError(err)
	suite.Equal(rejected.ID, review.Product.ID)

	approved := suite.createProduct(seller, 5)
	_, err = suite.reviews.SubmitReview(suite.ctx, curator, approved.ID, rubric(4, 4, 4, 4, 4, 4, 4, 4))
	suite.Require().NoError(err)

	reviews, err = suite.reviews.ListProductReviews(suite.ctx, nil, approved.ID)
	suite.Require().NoError(err)
	suite.Require().Len(reviews, 1)
	suite.Equal(curator.UserID, reviews[0].Curator.ID)
	suite.NotEmpty(reviews[0].Curator.Username)
	suite.Empty(reviews[0].Curator.Email)
	suite.Zero(reviews[0].Curator.CuratorPoints)
}

func (suite *WorkflowTestSuite) TestReviewRejectsInvalidInputWithoutSideEffects() {
	seller := suite.createUser(models.RoleSeller, false, 0)
	curator := suite.createUser(models.RoleCurator, true, 0)
	product := suite.createProduct(seller, 5)

	_, err := suite.reviews.SubmitReview(suite.ctx, curator, product.ID, rubric(4, 5, 5, 4, 5, 4, 5))
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.reviews.SubmitReview(suite.ctx, curator, product.ID, rubric(4, 5, 5, 4, 5, 4, 5, 6))
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.reviews.SubmitReview(suite.ctx, curator, uuid.New(), rubric(4, 5, 5, 4, 5, 4, 5, 4))
	suite.ErrorIs(err, apperrors.ErrNotFound)

	var count int64
	suite.db.Model(&models.ProductReview{}).Count(&count)
	suite.Zero(count)

	var stored models.Product
	suite.reload(&stored, product.ID)
	suite.Equal(models.ProductStatusPending, stored.Status)
	suite.False(stored.ReviewScore.Valid)
}

func (suite *WorkflowTestSuite) TestReviewAuthorization() {
	seller := suite.createUser(models.RoleSeller, false, 0)
	product := suite.createProduct(seller, 5)

	_, err := suite.reviews.SubmitReview(suite.ctx, suite.createUser(models.RoleClient, false, 0), product.ID, rubric(3, 3, 3, 3, 3, 3, 3, 3))
	suite.ErrorIs(err, apperrors.ErrForbidden)

	pending := suite.createUser(models.RoleCurator, false, 0)
	_, err = suite.reviews.SubmitReview(suite.ctx, pending, product.ID, rubric(3, 3, 3, 3, 3, 3, 3, 3))
	suite.ErrorIs(err, apperrors.ErrForbidden)

	admin := suite.createUser(models.RoleAdmin, false, 0)
	_, err = suite.admin.SetCuratorApproval(suite.ctx, admin, pending.UserID, &CuratorApprovalRequest{Approved: true})
	suite.Require().NoError(err)

	_, err = suite.reviews.SubmitReview(suite.ctx, pending, product.ID, rubric(3, 3, 3, 3, 3, 3, 3, 3))
	suite.NoError(err)

	var audits int64
	suite.db.Model(&models.AuditLog{}).Where("action = ?", "SET_CURATOR_APPROVAL").Count(&audits)
	suite.Equal(int64(1), audits)
}

func (suite *WorkflowTestSuite) TestReviewQueueExcludesReviewedAndOwnProducts() {
	seller := suite.createUser(models.RoleSeller, false, 0)
	curator := suite.createUser(models.RoleCurator, true, 0)
	reviewed := suite.createProduct(seller, 1)
	waiting := suite.createProduct(seller, 1)

	_, err := suite.reviews.SubmitReview(suite.ctx, curator, reviewed.ID, rubric(1, 1, 1, 1, 1, 1, 1, 1))
	suite.Require().NoError(err)

	queue, total, err := suite.reviews.ListReviewQueue(suite.ctx, curator, utils.DefaultPagination())
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(queue, 1)
	suite.Equal(waiting.ID, queue[0].ID)
}

func (suite *WorkflowTestSuite) TestRedemptionEndToEnd() {
	curator := suite.createUser(models.RoleCurator, true, 300)
	item := suite.createRedeemable(300, 1)

	redemption, err := suite.redemptions.Redeem(suite.ctx, curator, item.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(300), redemption.PointsSpent)
	suite.Equal(models.RedemptionStatusCompleted, redemption.Status)

	var user models.User
	suite.reload(&user, curator.UserID)
	suite.Zero(user.CuratorPoints)

	var stored models.RedeemableProduct
	suite.reload(&stored, item.ID)
	suite.Zero(stored.Stock)

	_, err = suite.redemptions.Redeem(suite.ctx, curator, item.ID)
	suite.ErrorIs(err, apperrors.ErrInsufficientPoints)

	history, total, err := suite.redemptions.ListMyRedemptions(suite.ctx, curator, utils.DefaultPagination())
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Len(history, 1)

	var notified int64
	suite.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", curator.UserID, models.NotificationRedemptionCompleted).
		Count(&notified)
	suite.Equal(int64(1), notified)
}

func (suite *WorkflowTestSuite) TestRedemptionOutOfStockChangesNothing() {
	curator := suite.createUser(models.RoleCurator, true, 1000)
	item := suite.createRedeemable(300, 0)

	_, err := suite.redemptions.Redeem(suite.ctx, curator, item.ID)
	suite.ErrorIs(err, apperrors.ErrOutOfStock)

	var user models.User
	suite.reload(&user, curator.UserID)
	suite.Equal(int64(1000), user.CuratorPoints)

	var count int64
	suite.db.Model(&models.ProductRedemption{}).Count(&count)
	suite.Zero(count)
}

func (suite *WorkflowTestSuite) TestRedemptionRejectsNonCurators() {
	item := suite.createRedeemable(10, 5)
	_, err := suite.redemptions.Redeem(suite.ctx, suite.createUser(models.RoleSeller, false, 0), item.ID)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	_, err = suite.redemptions.Redeem(suite.ctx, suite.createUser(models.RoleCurator, true, 100), uuid.New())
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *WorkflowTestSuite) TestConcurrentRedemptionsOfLastPoints() {
	curator := suite.createUser(models.RoleCurator, true, 300)
	item := suite.createRedeemable(300, 10)

	errs := suite.runConcurrently(8, func() error {
		_, err := suite.redemptions.Redeem(suite.ctx, curator, item.ID)
		return err
	})

	suite.Equal(1, countNil(errs))
	for _, err := range errs {
		if err != nil {
			suite.ErrorIs(err, apperrors.ErrInsufficientPoints)
		}
	}

	var user models.User
	suite.reload(&user, curator.UserID)
	suite.Zero(user.CuratorPoints)

	var stored models.RedeemableProduct
	suite.reload(&stored, item.ID)
	suite.Equal(9, stored.Stock)
}

func (suite *WorkflowTestSuite) TestConcurrentRedemptionsOfLastUnit() {
	item := suite.createRedeemable(100, 1)
	curators := make([]Caller, 6)
	for i := range curators {
		curators[i] = suite.createUser(models.RoleCurator, true, 500)
	}

	var i int
	var mu sync.Mutex
	errs := suite.runConcurrently(len(curators), func() error {
		mu.Lock()
		caller := curators[i]
		i++
		mu.Unlock()
		_, err := suite.redemptions.Redeem(suite.ctx, caller, item.ID)
		return err
	})

	suite.Equal(1, countNil(errs))
	for _, err := range errs {
		if err != nil {
			suite.ErrorIs(err, apperrors.ErrOutOfStock)
		}
	}

	var stored models.RedeemableProduct
	suite.reload(&stored, item.ID)
	suite.Zero(stored.Stock)

	var spent int64
	suite.db.Model(&models.PointsTransaction{}).Where("source_type = ?", models.PointsSourceRedemption).
		Select("COALESCE(SUM(amount), 0)").Scan(&spent)
	suite.Equal(int64(-100), spent)
}

func (suite *WorkflowTestSuite) approvedProduct(stock int) (*models.Product, Caller) {
	seller := suite.createUser(models.RoleSeller, false, 0)
	product := suite.createProduct(seller, stock)
	_, err := suite.reviews.SubmitReview(suite.ctx, suite.createUser(models.RoleCurator, true, 0), product.ID, rubric(5, 5, 5, 5, 5, 5, 5, 5))
	suite.Require().NoError(err)
	return product, seller
}

func (suite *WorkflowTestSuite) TestOrderLifecycle() {
	product, seller := suite.approvedProduct(2)
	buyer := suite.createUser(models.RoleClient, false, 0)

	order, err := suite.orders.PlaceOrder(suite.ctx, buyer, product.ID, &PlaceOrderRequest{PaymentMethod: "paypal"})
	suite.Require().NoError(err)
	suite.Equal(models.PaymentStatusPending, order.PaymentStatus)
	suite.Equal("19.99", order.Amount.StringFixed(2))
	suite.Regexp(`^TXN-\d+-[a-z0-9]{9}$`, order.TransactionID)
	suite.Equal(seller.UserID, order.SellerID)

	var stored models.Product
	suite.reload(&stored, product.ID)
	suite.Equal(1, stored.Stock)

	completed, err := suite.orders.UpdatePaymentStatus(suite.ctx, buyer, order.ID,
		&UpdatePaymentStatusRequest{Status: models.PaymentStatusCompleted})
	suite.Require().NoError(err)
	suite.NotNil(completed.PaidAt)

	suite.reload(&stored, product.ID)
	suite.Equal(1, stored.Stock)
	suite.Equal(int64(1), stored.SalesCount)

	_, err = suite.orders.UpdatePaymentStatus(suite.ctx, buyer, order.ID,
		&UpdatePaymentStatusRequest{Status: models.PaymentStatusCancelled})
	suite.ErrorIs(err, apperrors.ErrInvalidState)

	seen, err := suite.orders.GetOrder(suite.ctx, seller, order.ID)
	suite.Require().NoError(err)
	suite.Equal(order.ID, seen.ID)

	_, err = suite.orders.GetOrder(suite.ctx, suite.createUser(models.RoleClient, false, 0), order.ID)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *WorkflowTestSuite) TestCancelledOrderRestocks() {
	product, _ := suite.approvedProduct(1)
	buyer := suite.createUser(models.RoleClient, false, 0)

	order, err := suite.orders.PlaceOrder(suite.ctx, buyer, product.ID, &PlaceOrderRequest{PaymentMethod: "credit_card"})
	suite.Require().NoError(err)

	_, err = suite.orders.PlaceOrder(suite.ctx, buyer, product.ID, &PlaceOrderRequest{PaymentMethod: "credit_card"})
	suite.ErrorIs(err, apperrors.ErrInsufficientStock)

	_, err = suite.orders.UpdatePaymentStatus(suite.ctx, buyer, order.ID,
		&UpdatePaymentStatusRequest{Status: models.PaymentStatusFailed})
	suite.ErrorIs(err, apperrors.ErrForbidden)

	_, err = suite.orders.UpdatePaymentStatus(suite.ctx, buyer, order.ID,
		&UpdatePaymentStatusRequest{Status: models.PaymentStatusCancelled})
	suite.Require().NoError(err)

	var stored models.Product
	suite.reload(&stored, product.ID)
	suite.Equal(1, stored.Stock)

	var orders int64
	suite.db.Model(&models.Order{}).Count(&orders)
	suite.Equal(int64(1), orders)
}

func (suite *WorkflowTestSuite) TestOrderRules() {
	product, seller := suite.approvedProduct(3)

	_, err := suite.orders.PlaceOrder(suite.ctx, seller, product.ID, &PlaceOrderRequest{PaymentMethod: "paypal"})
	suite.ErrorIs(err, apperrors.ErrForbidden)

	_, err = suite.orders.PlaceOrder(suite.ctx, suite.createUser(models.RoleClient, false, 0), product.ID, &PlaceOrderRequest{PaymentMethod: "cash"})
	suite.ErrorIs(err, apperrors.ErrValidation)

	pending := suite.createProduct(seller, 3)
	_, err = suite.orders.PlaceOrder(suite.ctx, suite.createUser(models.RoleClient, false, 0), pending.ID, &PlaceOrderRequest{PaymentMethod: "paypal"})
	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *WorkflowTestSuite) TestConcurrentOrdersNeverOversell() {
	product, _ := suite.approvedProduct(3)
	buyer := suite.createUser(models.RoleClient, false, 0)

	errs := suite.runConcurrently(10, func() error {
		_, err := suite.orders.PlaceOrder(suite.ctx, buyer, product.ID, &PlaceOrderRequest{PaymentMethod: "bank_transfer"})
		return err
	})

	suite.Equal(3, countNil(errs))
	for _, err := range errs {
		if err != nil {
			suite.ErrorIs(err, apperrors.ErrInsufficientStock)
		}
	}

	var stored models.Product
	suite.reload(&stored, product.ID)
	suite.Zero(stored.Stock)

	var orders int64
	suite.db.Model(&models.Order{}).Where("product_id = ?", product.ID).Count(&orders)
	suite.Equal(int64(3), orders)
}

func (suite *WorkflowTestSuite) TestCustomerReviewRequiresCompletedPurchase() {
	product, seller := suite.approvedProduct(5)
	buyer := suite.createUser(models.RoleClient, false, 0)

	_, err := suite.customerReviews.CreateReview(suite.ctx, buyer, product.ID, &CreateCustomerReviewRequest{Rating: 5})
	suite.ErrorIs(err, apperrors.ErrForbidden)

	order, err := suite.orders.PlaceOrder(suite.ctx, buyer, product.ID, &PlaceOrderRequest{PaymentMethod: "paypal"})
	suite.Require().NoError(err)

	_, err = suite.customerReviews.CreateReview(suite.ctx, buyer, product.ID, &CreateCustomerReviewRequest{Rating: 5})
	suite.ErrorIs(err, apperrors.ErrForbidden)

	_, err = suite.orders.UpdatePaymentStatus(suite.ctx, buyer, order.ID, &UpdatePaymentStatusRequest{Status: models.PaymentStatusCompleted})
	suite.Require().NoError(err)

	review, err := suite.customerReviews.CreateReview(suite.ctx, buyer, product.ID, &CreateCustomerReviewRequest{Rating: 4, Comment: "useful"})
	suite.Require().NoError(err)

	_, err = suite.customerReviews.CreateReview(suite.ctx, buyer, product.ID, &CreateCustomerReviewRequest{Rating: 1})
	suite.ErrorIs(err, apperrors.ErrAlreadyExists)

	var stored models.Product
	suite.reload(&stored, product.ID)
	suite.Equal("4.00", stored.Rating.StringFixed(2))
	suite.Equal(int64(1), stored.RatingCount)

	otherSeller := suite.createUser(models.RoleSeller, false, 0)
	_, err = suite.customerReviews.RespondToReview(suite.ctx, otherSeller, review.ID, &RespondToReviewRequest{Response: "thanks"})
	suite.ErrorIs(err, apperrors.ErrForbidden)

	_, err = suite.customerReviews.RespondToReview(suite.ctx, seller, review.ID, &RespondToReviewRequest{Response: "thanks"})
	suite.Require().NoError(err)

	_, err = suite.customerReviews.RespondToReview(suite.ctx, seller, review.ID, &RespondToReviewRequest{Response: "again"})
	suite.ErrorIs(err, apperrors.ErrAlreadyExists)

	list, total, err := suite.customerReviews.ListProductReviews(suite.ctx, product.ID, utils.DefaultPagination())
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(list, 1)
	suite.Require().NotNil(list[0].Response)
	suite.Equal("thanks", list[0].Response.Response)
}

func (suite *WorkflowTestSuite) TestProductVisibilityAndSearch() {
	seller := suite.createUser(models.RoleSeller, false, 0)
	pending := suite.createProduct(seller, 2)
	approved, _ := suite.approvedProduct(0)

	_, err := suite.products.GetProduct(suite.ctx, nil, pending.ID)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = suite.products.GetProduct(suite.ctx, &seller, pending.ID)
	suite.NoError(err)

	results, total, err := suite.products.SearchProducts(suite.ctx, ProductSearchParams{PaginationParams: utils.DefaultPagination()})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(results, 1)
	suite.Equal(approved.ID, results[0].ID)

	_, total, err = suite.products.SearchProducts(suite.ctx, ProductSearchParams{PaginationParams: utils.DefaultPagination(), InStock: true})
	suite.Require().NoError(err)
	suite.Zero(total)
}

func (suite *WorkflowTestSuite) TestAdminRoleChangeClearsCuratorApproval() {
	admin := suite.createUser(models.RoleAdmin, false, 0)
	curator := suite.createUser(models.RoleCurator, true, 0)

	user, err := suite.admin.UpdateUserRole(suite.ctx, admin, curator.UserID, &UpdateUserRoleRequest{Role: models.RoleSeller})
	suite.Require().NoError(err)
	suite.Equal(models.RoleSeller, user.Role)
	suite.False(user.IsCuratorApproved)

	_, err = suite.admin.UpdateUserRole(suite.ctx, curator, admin.UserID, &UpdateUserRoleRequest{Role: models.RoleClient})
	suite.ErrorIs(err, apperrors.ErrForbidden)

	_, err = suite.admin.SetCuratorApproval(suite.ctx, admin, curator.UserID, &CuratorApprovalRequest{Approved: true})
	suite.ErrorIs(err, apperrors.ErrInvalidState)

	stats, err := suite.admin.GetDashboardStats(suite.ctx, admin)
	suite.Require().NoError(err)
	suite.Equal(int64(2), stats.TotalUsers)
}

func (suite *WorkflowTestSuite) TestDemotedSellerCannotEditListings() {
	admin := suite.createUser(models.RoleAdmin, false, 0)
	seller := suite.createUser(models.RoleSeller, false, 0)
	product := suite.createProduct(seller, 5)

	_, err := suite.admin.UpdateUserRole(suite.ctx, admin, seller.UserID, &UpdateUserRoleRequest{Role: models.RoleClient})
	suite.Require().NoError(err)
	demoted := Caller{UserID: seller.UserID, Role: models.RoleClient}

	title := "Renamed Planner Kit"
	_, err = suite.products.UpdateProduct(suite.ctx, demoted, product.ID, &UpdateProductRequest{Title: &title})
	suite.ErrorIs(err, apperrors.ErrForbidden)

	err = suite.products.DeleteProduct(suite.ctx, demoted, product.ID)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	var stored models.Product
	suite.reload(&stored, product.ID)
	suite.Equal("Notion Planner Kit", stored.Title)
}

func (suite *WorkflowTestSuite) runConcurrently(n int, fn func() error) []error {
	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

func countNil(errs []error) int {
	n := 0
	for _, err := range errs {
		if err == nil {
			n++
		}
	}
	return n
}
