package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, CheckPassword(hash, "wrong password"))
}

func TestGenerateTokenProducesDistinctHexStrings(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, 64) // 32 bytes, hex-encoded
	assert.NotEqual(t, a, b)
}

func TestValidatePasswordEnforcesMinLength(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("short", 8, false), ErrWeakPassword)
	assert.NoError(t, ValidatePassword("longenough", 8, false))
}

func TestValidatePasswordComplexityRequiresThreeClasses(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("alllowercase", 8, true), ErrWeakPassword, "only one character class present")
	assert.NoError(t, ValidatePassword("Abc12345", 8, true), "upper+lower+digit clears the three-class bar")
}
