package validator

import (
	"testing"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planRequest struct {
	Name         string          `json:"name" validate:"required"`
	Price        decimal.Decimal `json:"price" validate:"non_negative_decimal"`
	BillingCycle string          `json:"billing_cycle" validate:"required,billing_cycle"`
}

func TestValidateRequest(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		err := ValidateRequest(&planRequest{
			Name:         "Pro",
			Price:        decimal.NewFromInt(30),
			BillingCycle: "MONTHLY",
		})
		assert.NoError(t, err)
	})

	t.Run("invalid fields are reported by json name", func(t *testing.T) {
		err := ValidateRequest(&planRequest{
			Price:        decimal.NewFromInt(-1),
			BillingCycle: "WEEKLY",
		})
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))

		details := ierr.GetDetails(err)
		assert.Equal(t, "is required", details["name"])
		assert.Equal(t, "must be a number zero or greater", details["price"])
		assert.Equal(t, "must be MONTHLY or YEARLY", details["billing_cycle"])
	})
}
