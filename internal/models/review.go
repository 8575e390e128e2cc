// internal/models/review.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductReview is a curator's rubric assessment. One row per (product, curator).
type ProductReview struct {
	BaseModel
	ProductID      uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_product_reviews_product_curator"`
	CuratorID      uuid.UUID       `json:"curator_id" gorm:"type:uuid;not null;uniqueIndex:idx_product_reviews_product_curator;index"`
	Question1Score int             `json:"question1_score" gorm:"not null"`
	Question2Score int             `json:"question2_score" gorm:"not null"`
	Question3Score int             `json:"question3_score" gorm:"not null"`
	Question4Score int             `json:"question4_score" gorm:"not null"`
	Question5Score int             `json:"question5_score" gorm:"not null"`
	Question6Score int             `json:"question6_score" gorm:"not null"`
	Question7Score int             `json:"question7_score" gorm:"not null"`
	Question8Score int             `json:"question8_score" gorm:"not null"`
	TotalScore     int             `json:"total_score" gorm:"not null"`
	AverageScore   decimal.Decimal `json:"average_score" gorm:"type:decimal(5,2);not null"`
	Status         ReviewStatus    `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PointsEarned   int64           `json:"points_earned" gorm:"not null;default:0"`
	// PointsCredited is what the curator's balance currently holds for this review.
	PointsCredited int64      `json:"-" gorm:"not null;default:0"`
	Comments       string     `json:"comments" gorm:"type:text"`
	CompletedAt    *time.Time `json:"completed_at"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Curator User    `json:"curator,omitempty" gorm:"foreignKey:CuratorID"`
}

func (r *ProductReview) SetScores(scores []int) {
	targets := []*int{
		&r.Question1Score, &r.Question2Score, &r.Question3Score, &r.Question4Score,
		&r.Question5Score, &r.Question6Score, &r.Question7Score, &r.Question8Score,
	}
	for i := range targets {
		if i < len(scores) {
			*targets[i] = scores[i]
		}
	}
}

// CustomerReview is a buyer's star rating, gated on a completed purchase.
type CustomerReview struct {
	BaseModel
	ProductID  uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_customer_reviews_product_customer"`
	CustomerID uuid.UUID `json:"customer_id" gorm:"type:uuid;not null;uniqueIndex:idx_customer_reviews_product_customer;index"`
	OrderID    uuid.UUID `json:"order_id" gorm:"type:uuid;not null"`
	Rating     int       `json:"rating" gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Comment    string    `json:"comment" gorm:"type:text"`

	// Relationships
	Customer User            `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Response *SellerResponse `json:"response,omitempty" gorm:"foreignKey:CustomerReviewID"`
}

type SellerResponse struct {
	BaseModel
	CustomerReviewID uuid.UUID `json:"customer_review_id" gorm:"type:uuid;not null;uniqueIndex"`
	ResponderID      uuid.UUID `json:"responder_id" gorm:"type:uuid;not null"`
	Response         string    `json:"response" gorm:"type:text;not null"`
}
