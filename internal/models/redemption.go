// internal/models/redemption.go
package models

import (
	"github.com/google/uuid"
)

// RedeemableProduct is a catalog item curators buy with points, separate from seller listings.
type RedeemableProduct struct {
	BaseModel
	Name        string `json:"name" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"type:text"`
	PointsCost  int64  `json:"points_cost" gorm:"not null;check:points_cost > 0"`
	Stock       int    `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	IsActive    bool   `json:"is_active" gorm:"not null;index"`
}

type ProductRedemption struct {
	BaseModel
	UserID              uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	RedeemableProductID uuid.UUID        `json:"redeemable_product_id" gorm:"type:uuid;not null;index"`
	PointsSpent         int64            `json:"points_spent" gorm:"not null"`
	Status              RedemptionStatus `json:"status" gorm:"type:varchar(20);not null"`

	// Relationships
	RedeemableProduct RedeemableProduct `json:"redeemable_product,omitempty" gorm:"foreignKey:RedeemableProductID"`
}
