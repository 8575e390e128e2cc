package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := InsufficientPoints(100, 300)

	assert.True(t, errors.Is(err, ErrInsufficientPoints))
	assert.False(t, errors.Is(err, ErrOutOfStock))

	wrapped := fmt.Errorf("redeem: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInsufficientPoints))
	assert.Equal(t, KindInsufficientPoints, KindOf(wrapped))
}

func TestAsTransactionFailure(t *testing.T) {
	assert.Nil(t, AsTransactionFailure(nil))

	domain := OutOfStock("redeemable product")
	assert.Same(t, domain, AsTransactionFailure(domain))

	raw := errors.New("connection reset")
	got := AsTransactionFailure(raw)
	assert.True(t, errors.Is(got, ErrTransactionFailure))
	assert.True(t, errors.Is(got, raw))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("product"), http.StatusNotFound},
		{Unauthorized("no token"), http.StatusUnauthorized},
		{Forbidden("curators only"), http.StatusForbidden},
		{InsufficientPoints(0, 1), http.StatusUnprocessableEntity},
		{InsufficientStock("product"), http.StatusUnprocessableEntity},
		{OutOfStock("redeemable product"), http.StatusUnprocessableEntity},
		{AlreadyExists("dup"), http.StatusConflict},
		{InvalidState("not approved"), http.StatusConflict},
		{TransactionFailure(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: product not found", NotFound("product").Error())
	assert.Equal(t, "FORBIDDEN", (&Error{Kind: KindForbidden}).Error())
}
