package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "claimtrail/pkg/domain-errors"
)

func TestService_RoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "claimtrail")

	token, err := svc.GenerateToken("ops-user", "acme", time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops-user", claims.Actor)
	assert.Equal(t, "acme", claims.Tenant)
	assert.Equal(t, "claimtrail", claims.Issuer)
}

func TestService_Rejections(t *testing.T) {
	svc := NewService("test-signing-key", "claimtrail")

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.GenerateToken("ops-user", "", -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewService("different-key", "claimtrail")
		token, err := other.GenerateToken("ops-user", "", time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
