package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "plain sentinel",
			err:        ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantMsg:    "not found",
		},
		{
			name:       "wrapped sentinel keeps detail",
			err:        fmt.Errorf("%w: product 7", ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantMsg:    "not found: product 7",
		},
		{
			name:       "client message",
			err:        WithMessage(ErrInsufficientStock, "Only 3 items available in stock"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INSUFFICIENT_STOCK",
			wantMsg:    "Only 3 items available in stock",
		},
		{
			name:       "category in use",
			err:        ErrCategoryInUse,
			wantStatus: http.StatusBadRequest,
			wantCode:   "CATEGORY_IN_USE",
			wantMsg:    "Cannot delete category that has products",
		},
		{
			name:       "email taken",
			err:        ErrEmailTaken,
			wantStatus: http.StatusConflict,
			wantCode:   "EMAIL_TAKEN",
			wantMsg:    "email already registered",
		},
		{
			name:       "forbidden",
			err:        fmt.Errorf("update product: %w", ErrForbidden),
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "unknown error is not leaked",
			err:        errors.New("dial tcp 10.0.0.1:3306: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
			wantMsg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, got.Message)
			}
		})
	}
}

func TestWithMessage_Is(t *testing.T) {
	err := fmt.Errorf("add to cart: %w", WithMessage(ErrValidation, "Invalid quantity"))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Invalid quantity", MapErrorToHTTP(err).Message)
}

func TestHTTPError_ToErrorResponse(t *testing.T) {
	resp := NewHTTPError(http.StatusBadRequest, "bad", "BAD").ToErrorResponse()
	assert.Equal(t, ErrorResponse{Error: "bad", Code: "BAD"}, resp)
}
