package validator

import (
	"testing"

	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Frequency string `json:"frequency" validate:"required,frequency"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

func TestValidateRequest(t *testing.T) {
	NewValidator()

	assert.NoError(t, ValidateRequest(sampleRequest{Frequency: "weekly", Quantity: 1}))

	err := ValidateRequest(sampleRequest{Frequency: "daily", Quantity: 0})
	assert.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}
