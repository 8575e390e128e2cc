// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusPending  ProductStatus = "pending"
	ProductStatusApproved ProductStatus = "approved"
	ProductStatusRejected ProductStatus = "rejected"
)

// CanTransition encodes the curation state machine. A product leaves pending only
// through a review decision; approved and rejected are terminal.
func (s ProductStatus) CanTransition(next ProductStatus) bool {
	if s != ProductStatusPending {
		return false
	}
	return next == ProductStatusApproved || next == ProductStatusRejected
}

func (s ProductStatus) Terminal() bool {
	return s == ProductStatusApproved || s == ProductStatusRejected
}

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusPending, ProductStatusApproved, ProductStatusRejected:
		return true
	}
	return false
}

func (s ProductStatus) Orderable() bool {
	return s == ProductStatusApproved
}

type Product struct {
	BaseModel
	SellerID    uuid.UUID           `json:"seller_id" gorm:"type:uuid;not null;index"`
	Title       string              `json:"title" gorm:"size:255;not null"`
	Description string              `json:"description" gorm:"type:text"`
	Category    string              `json:"category" gorm:"size:100;index"`
	Price       decimal.Decimal     `json:"price" gorm:"type:decimal(10,2);not null;check:price >= 0"`
	Stock       int                 `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	Tags        pq.StringArray      `json:"tags" gorm:"type:text[]"`
	Status      ProductStatus       `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ReviewScore decimal.NullDecimal `json:"review_score" gorm:"type:decimal(5,2)"`
	Rating      decimal.Decimal     `json:"rating" gorm:"type:decimal(3,2);not null;default:0"`
	RatingCount int64               `json:"rating_count" gorm:"not null;default:0"`
	SalesCount  int64               `json:"sales_count" gorm:"not null;default:0"`

	// Relationships
	Seller  User            `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Reviews []ProductReview `json:"reviews,omitempty" gorm:"foreignKey:ProductID"`
}
