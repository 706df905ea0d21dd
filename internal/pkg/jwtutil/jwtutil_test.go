package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken("secret", time.Hour, Identity{UserID: 7, Username: "mai", Role: "approver", Department: "B2B"})
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "mai", claims.Username)
	assert.Equal(t, "approver", claims.Role)
	assert.Equal(t, "B2B", claims.Department)
}

func TestParseRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateToken("secret", time.Hour, Identity{UserID: 1, Username: "a"})
	require.NoError(t, err)
	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateToken("secret", -time.Minute, Identity{UserID: 1, Username: "a"})
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateRequiresSecret(t *testing.T) {
	_, err := GenerateToken("", time.Hour, Identity{UserID: 1})
	assert.Error(t, err)
}
