package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeCompanyNotFound, "company ACME-01 not found")
	assert.Equal(t, ErrCodeCompanyNotFound, err.Code)
	assert.Equal(t, "[CMP_001] company ACME-01 not found", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestError_WithDetail(t *testing.T) {
	err := New(ErrCodeBadRequest, "bad request").WithDetail("limit=-1")
	assert.Equal(t, "[COMMON_002] bad request: limit=-1", err.Error())

	var nilErr *AppError
	assert.Nil(t, nilErr.WithDetail("x"))
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrCodeDatabaseError, "failed to query company")

	assert.Equal(t, ErrCodeDatabaseError, err.Code)
	assert.ErrorIs(t, err, cause)
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "ignored"))
}

func TestWrap_PreservesCodeForUnknown(t *testing.T) {
	inner := New(ErrCodePortfolioNotFound, "portfolio missing")
	wrapped := Wrap(inner, CodeUnknown, "while updating")
	assert.Equal(t, ErrCodePortfolioNotFound, wrapped.Code)
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeCacheError, "cache down")
	outer := fmt.Errorf("outer: %w", inner)

	assert.True(t, IsCode(outer, ErrCodeCacheError))
	assert.False(t, IsCode(outer, ErrCodeDatabaseError))
	assert.False(t, IsCode(nil, ErrCodeCacheError))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeCompanyNotFound, "x")))
	assert.True(t, IsNotFound(New(ErrCodePortfolioNotFound, "x")))
	assert.True(t, IsNotFound(NotFound("x")))
	assert.False(t, IsNotFound(New(ErrCodeInternal, "x")))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(errors.New("plain")))
	assert.Equal(t, ErrCodeValidation, GetCode(NewValidation("bad score")))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatusForCode(ErrCodeCompanyNotFound))
	assert.Equal(t, http.StatusBadRequest, HTTPStatusForCode(ErrCodeBadRequest))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("NOPE_999")))
}

func TestClientServerClassification(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeRatingInvalid))
	assert.False(t, IsServerError(ErrCodeRatingInvalid))
	assert.True(t, IsServerError(ErrCodeAggregationFailed))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "CMP", ModuleForCode(ErrCodeCompanyNotFound))
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
}
