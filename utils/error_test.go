package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionErrorVariants(t *testing.T) {
	var permErr *PermissionDeniedError

	err := ErrMissingPermission("permission denied for risks:update")
	require.True(t, errors.As(err, &permErr))
	assert.False(t, permErr.AccountProblem)
	assert.Equal(t, "permission denied for risks:update", err.Error())

	err = ErrAccountNotUsable("account is inactive")
	require.True(t, errors.As(err, &permErr))
	assert.True(t, permErr.AccountProblem)
}

func TestValidationErrorMessages(t *testing.T) {
	err := ErrValidation("first", "second")
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, []string{"first", "second"}, validationErr.Messages)
	assert.Equal(t, "first", err.Error())
}
