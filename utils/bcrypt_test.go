package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correcto-caballo-batería")
	require.NoError(t, err)

	assert.NoError(t, ComparePassword(string(hash), "correcto-caballo-batería"))
	assert.Error(t, ComparePassword(string(hash), "otra-clave"))
}
