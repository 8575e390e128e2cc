// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	BaseModel
	CustomerID    uuid.UUID       `json:"customer_id" gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	SellerID      uuid.UUID       `json:"seller_id" gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	PaymentStatus PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentMethod string          `json:"payment_method" gorm:"size:50;not null"`
	TransactionID string          `json:"transaction_id" gorm:"size:64;not null;uniqueIndex"`
	PaidAt        *time.Time      `json:"paid_at"`
	ClosedAt      *time.Time      `json:"closed_at"`

	// Relationships
	Customer User    `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Product  Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
