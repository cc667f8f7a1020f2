package errors

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestMarkAndClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		is     func(error) bool
		code   string
		status int
	}{
		{
			name:   "not found",
			err:    NewError("plan not found").WithHint("Plan not found").Mark(ErrNotFound),
			is:     IsNotFound,
			code:   ErrCodeNotFound,
			status: http.StatusNotFound,
		},
		{
			name:   "conflict",
			err:    NewError("active subscription exists").Mark(ErrAlreadyExists),
			is:     IsAlreadyExists,
			code:   ErrCodeAlreadyExists,
			status: http.StatusConflict,
		},
		{
			name:   "invalid state",
			err:    NewError("plan is not active").Mark(ErrInvalidOperation),
			is:     IsInvalidOperation,
			code:   ErrCodeInvalidOperation,
			status: http.StatusBadRequest,
		},
		{
			name:   "operation failed wraps a driver error",
			err:    WithError(sql.ErrConnDone).WithHint("Failed to switch subscription").Mark(ErrOperationFailed),
			is:     IsOperationFailed,
			code:   ErrCodeOperationFailed,
			status: http.StatusInternalServerError,
		},
		{
			name:   "unauthorized",
			err:    NewError("missing token").Mark(ErrUnauthorized),
			is:     IsUnauthorized,
			code:   ErrCodeUnauthorized,
			status: http.StatusUnauthorized,
		},
		{
			name:   "rate limited",
			err:    NewError("rate limit exceeded").Mark(ErrTooManyRequests),
			is:     func(err error) bool { return Is(err, ErrTooManyRequests) },
			code:   ErrCodeTooManyRequests,
			status: http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(tt.err))
			assert.Equal(t, tt.code, CodeFromErr(tt.err))
			assert.Equal(t, tt.status, HTTPStatusFromErr(tt.err))
		})
	}
}

func TestUnmarkedErrorIsSystemError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, ErrCodeSystemError, CodeFromErr(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromErr(err))
	assert.False(t, IsNotFound(err))
}

func TestMarkSurvivesWrapping(t *testing.T) {
	err := NewError("no active subscription").Mark(ErrNotFound)
	wrapped := errors.Wrap(err, "cancel subscription")
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsOperationFailed(wrapped))
}

func TestHintsAndDetails(t *testing.T) {
	err := NewError("bad input").
		WithHintf("Field %s is invalid", "price").
		WithReportableDetails(map[string]any{"field": "price"}).
		Mark(ErrValidation)

	assert.Contains(t, errors.GetAllHints(err), "Field price is invalid")
	assert.True(t, IsValidation(err))
}

func TestDisplayMessageAndDetails(t *testing.T) {
	err := NewError("no active subscription").
		WithHint("No active subscription found").
		WithReportableDetails(map[string]any{"user_id": "user_1"}).
		Mark(ErrNotFound)

	assert.Equal(t, "No active subscription found", GetDisplayMessage(err))
	assert.Equal(t, map[string]any{"user_id": "user_1"}, GetDetails(err))

	assert.Equal(t, "An unexpected error occurred", GetDisplayMessage(errors.New("boom")))
	assert.Empty(t, GetDetails(errors.New("boom")))
}
