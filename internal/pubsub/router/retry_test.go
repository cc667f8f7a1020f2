package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	log := logger.NewNoopLogger()

	var payload map[string]any
	malformed := json.Unmarshal([]byte("{"), &payload)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"malformed payload", malformed, false},
		{"cancelled", context.Canceled, false},
		{"validation", ierr.NewError("bad").Mark(ierr.ErrValidation), false},
		{"not found", ierr.NewError("missing").Mark(ierr.ErrNotFound), false},
		{"invalid operation", ierr.NewError("nope").Mark(ierr.ErrInvalidOperation), false},
		{"database", ierr.NewError("down").Mark(ierr.ErrDatabase), true},
		{"unknown", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRetry(log, tt.err))
		})
	}
}
