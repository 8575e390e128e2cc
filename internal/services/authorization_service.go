// internal/services/authorization_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/models"
)

// Caller is the authenticated identity every operation acts on behalf of.
type Caller struct {
	UserID uuid.UUID
	Role   models.UserRole
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

type Capability string

const (
	CapProductCreate        Capability = "product:create"
	CapReviewSubmit         Capability = "review:submit"
	CapReviewQueue          Capability = "review:queue"
	CapPointsRedeem         Capability = "points:redeem"
	CapOrderPlace           Capability = "order:place"
	CapCustomerReviewCreate Capability = "customer_review:create"
	CapSellerResponseCreate Capability = "seller_response:create"
	CapRedeemableManage     Capability = "redeemable:manage"
	CapUserManage           Capability = "user:manage"
)

var everyRole = []models.UserRole{models.RoleClient, models.RoleSeller, models.RoleCurator, models.RoleAdmin}

var capabilityMatrix = map[Capability][]models.UserRole{
	CapProductCreate:        {models.RoleSeller, models.RoleAdmin},
	CapReviewSubmit:         {models.RoleCurator, models.RoleAdmin},
	CapReviewQueue:          {models.RoleCurator, models.RoleAdmin},
	CapPointsRedeem:         {models.RoleCurator, models.RoleAdmin},
	CapOrderPlace:           everyRole,
	CapCustomerReviewCreate: everyRole,
	CapSellerResponseCreate: {models.RoleSeller, models.RoleAdmin},
	CapRedeemableManage:     {models.RoleAdmin},
	CapUserManage:           {models.RoleAdmin},
}

func Allowed(role models.UserRole, capability Capability) bool {
	for _, r := range capabilityMatrix[capability] {
		if r == role {
			return true
		}
	}
	return false
}

// Require is the single role check used by services and route middleware alike.
func Require(role models.UserRole, capability Capability) error {
	if !role.Valid() {
		return apperrors.Forbidden(fmt.Sprintf("unknown role %q", role))
	}
	if !Allowed(role, capability) {
		return apperrors.Forbidden(fmt.Sprintf("role %s lacks %s", role, capability))
	}
	return nil
}
