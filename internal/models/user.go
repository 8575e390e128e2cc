// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the full account row. Rows preloaded onto other resources carry only
// public columns, so the private fields are omitted when empty.
type User struct {
	BaseModel
	Username          string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email             string     `json:"email,omitempty" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash      string     `json:"-" gorm:"size:255;not null"`
	Role              UserRole   `json:"role" gorm:"type:varchar(20);not null;index"`
	Status            UserStatus `json:"status,omitempty" gorm:"type:varchar(20);default:'active'"`
	IsCuratorApproved bool       `json:"is_curator_approved,omitempty" gorm:"not null;default:false"`
	SellerPoints      int64      `json:"seller_points,omitempty" gorm:"not null;default:0;check:seller_points >= 0"`
	CuratorPoints     int64      `json:"curator_points,omitempty" gorm:"not null;default:0;check:curator_points >= 0"`
	ProfileData       JSONB      `json:"profile_data" gorm:"type:jsonb"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`

	// Relationships
	Products []Product `json:"products,omitempty" gorm:"foreignKey:SellerID"`
	Orders   []Order   `json:"orders,omitempty" gorm:"foreignKey:CustomerID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// CanReview is true for admins and for curators an admin has approved.
func (u *User) CanReview() bool {
	return u.Role == RoleAdmin || (u.Role == RoleCurator && u.IsCuratorApproved)
}
