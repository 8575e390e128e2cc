// internal/services/points_service.go
package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/utils"
)

// PointsService owns users.curator_points. Credit and debit take the caller's
// transaction so the balance change commits or rolls back with its trigger.
type PointsService struct {
	db *gorm.DB
}

// LedgerSource identifies what caused a balance change.
type LedgerSource struct {
	Type        models.PointsSource
	ID          uuid.UUID
	Description string
}

type PointsSummary struct {
	UserID           uuid.UUID `json:"user_id"`
	CuratorPoints    int64     `json:"curator_points"`
	SellerPoints     int64     `json:"seller_points"`
	ReviewsCompleted int64     `json:"reviews_completed"`
	TotalEarned      int64     `json:"total_earned"`
	TotalRedeemed    int64     `json:"total_redeemed"`
}

func NewPointsService(db *gorm.DB) *PointsService {
	return &PointsService{db: db}
}

func (s *PointsService) CreditCurator(tx *gorm.DB, userID uuid.UUID, amount int64, source LedgerSource) (*models.PointsTransaction, error) {
	if amount < 0 {
		return nil, apperrors.Validationf("credit amount must not be negative, got %d", amount)
	}

	result := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("curator_points", gorm.Expr("curator_points + ?", amount))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("user")
	}

	return s.record(tx, userID, models.PointsKindCredit, amount, source)
}

// DebitCurator subtracts amount only while the balance covers it. A failed debit
// leaves the balance untouched and returns INSUFFICIENT_POINTS.
func (s *PointsService) DebitCurator(tx *gorm.DB, userID uuid.UUID, amount int64, source LedgerSource) (*models.PointsTransaction, error) {
	if amount < 0 {
		return nil, apperrors.Validationf("debit amount must not be negative, got %d", amount)
	}

	result := tx.Model(&models.User{}).
		Where("id = ? AND curator_points >= ?", userID, amount).
		UpdateColumn("curator_points", gorm.Expr("curator_points - ?", amount))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		balance, err := s.balance(tx, userID)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InsufficientPoints(balance, amount)
	}

	return s.record(tx, userID, models.PointsKindDebit, -amount, source)
}

func (s *PointsService) record(tx *gorm.DB, userID uuid.UUID, kind models.PointsKind, signed int64, source LedgerSource) (*models.PointsTransaction, error) {
	balance, err := s.balance(tx, userID)
	if err != nil {
		return nil, err
	}

	entry := &models.PointsTransaction{
		UserID:       userID,
		Kind:         kind,
		Amount:       signed,
		BalanceAfter: balance,
		SourceType:   source.Type,
		SourceID:     source.ID,
		Description:  source.Description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *PointsService) balance(db *gorm.DB, userID uuid.UUID) (int64, error) {
	var user models.User
	if err := db.Select("id", "curator_points").First(&user, "id = ?", userID).Error; err != nil {
		return 0, notFoundOr(err, "user")
	}
	return user.CuratorPoints, nil
}

// GetBalance always reads the stored balance; callers must not cache it for decisions.
func (s *PointsService) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.balance(s.db.WithContext(ctx), userID)
}

func (s *PointsService) GetHistory(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.PointsTransaction, int64, error) {
	var entries []models.PointsTransaction
	query := s.db.WithContext(ctx).Model(&models.PointsTransaction{}).Where("user_id = ?", userID)
	total, err := paginate(query, params, []string{"created_at", "amount"}, &entries)
	if err != nil {
		return nil, 0, apperrors.TransactionFailure(err)
	}
	return entries, total, nil
}

func (s *PointsService) GetSummary(ctx context.Context, userID uuid.UUID) (*PointsSummary, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := findByID(db.Select("id", "curator_points", "seller_points"), &user, userID, "user"); err != nil {
		return nil, err
	}

	summary := &PointsSummary{
		UserID:        user.ID,
		CuratorPoints: user.CuratorPoints,
		SellerPoints:  user.SellerPoints,
	}

	if err := db.Model(&models.ProductReview{}).
		Where("curator_id = ? AND status = ?", userID, models.ReviewStatusCompleted).
		Count(&summary.ReviewsCompleted).Error; err != nil {
		return nil, apperrors.TransactionFailure(err)
	}

	var totals struct {
		Earned   int64
		Redeemed int64
	}
	if err := db.Model(&models.PointsTransaction{}).
		Select("COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0) AS earned, "+
			"COALESCE(SUM(CASE WHEN source_type = ? THEN -amount ELSE 0 END), 0) AS redeemed", models.PointsSourceRedemption).
		Where("user_id = ?", userID).
		Scan(&totals).Error; err != nil {
		return nil, apperrors.TransactionFailure(err)
	}
	summary.TotalEarned = totals.Earned
	summary.TotalRedeemed = totals.Redeemed

	return summary, nil
}
