// internal/models/models_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to ProductStatus
		want     bool
	}{
		{ProductStatusPending, ProductStatusApproved, true},
		{ProductStatusPending, ProductStatusRejected, true},
		{ProductStatusApproved, ProductStatusRejected, false},
		{ProductStatusRejected, ProductStatusApproved, false},
		{ProductStatusApproved, ProductStatusPending, false},
		{ProductStatusRejected, ProductStatusPending, false},
		{ProductStatusPending, ProductStatusPending, false},
		{ProductStatus("archived"), ProductStatusApproved, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestProductStatus_OrderableAndValid(t *testing.T) {
	assert.True(t, ProductStatusApproved.Orderable())
	assert.False(t, ProductStatusPending.Orderable())
	assert.False(t, ProductStatusRejected.Orderable())

	assert.False(t, ProductStatusPending.Terminal())
	assert.True(t, ProductStatusApproved.Terminal())
	assert.True(t, ProductStatusRejected.Terminal())

	assert.True(t, ProductStatusPending.Valid())
	assert.False(t, ProductStatus("draft").Valid())
}

func TestPaymentStatus_CanTransition(t *testing.T) {
	for _, next := range []PaymentStatus{PaymentStatusCompleted, PaymentStatusCancelled, PaymentStatusFailed} {
		assert.True(t, PaymentStatusPending.CanTransition(next), next)
		assert.False(t, next.CanTransition(PaymentStatusPending), next)
		assert.False(t, PaymentStatusCompleted.CanTransition(next), next)
	}
	assert.False(t, PaymentStatusPending.CanTransition(PaymentStatusPending))

	assert.True(t, PaymentStatusCancelled.ReleasesStock())
	assert.True(t, PaymentStatusFailed.ReleasesStock())
	assert.False(t, PaymentStatusCompleted.ReleasesStock())
}

func TestUser_CanReview(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).CanReview())
	assert.True(t, (&User{Role: RoleCurator, IsCuratorApproved: true}).CanReview())
	assert.False(t, (&User{Role: RoleCurator}).CanReview())
	assert.False(t, (&User{Role: RoleSeller, IsCuratorApproved: true}).CanReview())
}

func TestUser_Password(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("Secret1!"))
	assert.NotEqual(t, "Secret1!", u.PasswordHash)
	assert.NoError(t, u.CheckPassword("Secret1!"))
	assert.Error(t, u.CheckPassword("secret1!"))
}

func TestProductReview_Scores(t *testing.T) {
	var r ProductReview
	r.SetScores([]int{4, 5, 5, 4, 5, 4, 5, 4})
	assert.Equal(t, 4, r.Question1Score)
	assert.Equal(t, 5, r.Question2Score)
	assert.Equal(t, 5, r.Question7Score)
	assert.Equal(t, 4, r.Question8Score)
}

func TestJSONB_RoundTrip(t *testing.T) {
	in := JSONB{"first_name": "Ada"}
	v, err := in.Value()
	require.NoError(t, err)

	var out JSONB
	require.NoError(t, out.Scan(v))
	assert.Equal(t, "Ada", out["first_name"])

	require.NoError(t, out.Scan(nil))
	assert.Nil(t, out)
}

func TestUserRole_Valid(t *testing.T) {
	for _, r := range []UserRole{RoleClient, RoleSeller, RoleCurator, RoleAdmin} {
		assert.True(t, r.Valid())
	}
	assert.False(t, UserRole("owner").Valid())
}
