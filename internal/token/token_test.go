package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	signed, err := svc.Generate("op-1", "ana@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := svc.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.OperatorID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "dalia-manager", claims.Issuer)
}

func TestValidateWrongSecret(t *testing.T) {
	signed, err := NewService("secret-a", time.Hour).Generate("op-1", "ana@example.com")
	require.NoError(t, err)

	_, err = NewService("secret-b", time.Hour).Validate(signed)
	assert.Error(t, err)
}

func TestValidateExpired(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	signed, err := svc.Generate("op-1", "ana@example.com")
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	assert.Error(t, err)
}

func TestValidateGarbage(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	_, err := svc.Validate("not-a-token")
	assert.Error(t, err)
}
