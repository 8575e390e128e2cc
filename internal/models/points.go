// internal/models/points.go
package models

import (
	"github.com/google/uuid"
)

// PointsTransaction is an append-only entry for every curator balance change.
type PointsTransaction struct {
	BaseModel
	UserID       uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;index"`
	Kind         PointsKind   `json:"kind" gorm:"type:varchar(10);not null"`
	Amount       int64        `json:"amount" gorm:"not null"` // signed
	BalanceAfter int64        `json:"balance_after" gorm:"not null"`
	SourceType   PointsSource `json:"source_type" gorm:"type:varchar(30);not null"`
	SourceID     uuid.UUID    `json:"source_id" gorm:"type:uuid;not null"`
	Description  string       `json:"description" gorm:"size:255"`
}
