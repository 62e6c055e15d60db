package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeStillReferenced, http.StatusConflict},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeValidation, http.StatusBadRequest},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("perfume %s not found", "pf-1")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))
	assert.Equal(t, "perfume pf-1 not found", err.Error())
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("delete brand: %w", StillReferenced("brand is still in use", 2))

	assert.True(t, Is(err, ErrStillReferenced))

	var domainErr *Error
	require.True(t, As(err, &domainErr))
	assert.Equal(t, map[string]int{"usage_count": 2}, domainErr.Details)
	assert.Equal(t, http.StatusConflict, domainErr.HTTPStatus())
}

func TestError_WithCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Internal("save collection").WithCause(cause)

	assert.Equal(t, "save collection: disk full", err.Error())
	assert.Equal(t, cause, Unwrap(err))
	assert.True(t, Is(err, cause))
}

func TestError_WithDetailsKeepsCode(t *testing.T) {
	base := Validation("bad votes")
	detailed := base.WithDetails([]string{"rating.superb"})

	assert.Equal(t, CodeValidation, detailed.Code)
	assert.Nil(t, base.Details)
	assert.Equal(t, []string{"rating.superb"}, detailed.Details)
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("no such table")
	err := Wrapf(cause, CodeInternal, "load %s", "references")

	assert.True(t, Is(err, ErrInternal))
	assert.Equal(t, "load references: no such table", err.Error())
	assert.True(t, Is(Wrap(cause, CodeConflict, "x"), ErrConflict))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want Code
	}{
		{"already exists", AlreadyExists("brand exists"), CodeAlreadyExists},
		{"already existsf", AlreadyExistsf("tag %q exists", "woody"), CodeAlreadyExists},
		{"validation", Validationf("unknown kind %q", "perfumer"), CodeValidation},
		{"validation details", ValidationWithDetails("bad", map[string]string{"name": "is required"}), CodeValidation},
		{"conflict", Conflictf("order has %d ids", 3), CodeConflict},
		{"rate limited", RateLimited("slow down"), CodeRateLimited},
		{"internal", Internalf("boom %d", 1), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestError_GetStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StillReferenced("brand in use", 2).GetStatus())
	assert.Equal(t, http.StatusBadRequest, Validation("bad range").GetStatus())
}
