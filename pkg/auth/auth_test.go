package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/shift-optimizer/pkg/config"
)

func configure(t *testing.T) {
	t.Helper()
	Configure(config.AuthConfig{JWTSecret: "jwt-test", APIMasterSecret: "master-test"})
}

func TestHMACKeyRoundTrip(t *testing.T) {
	configure(t)

	key := GenerateHMACKey("store-12")
	userID, err := VerifyHMACKey(key)
	require.NoError(t, err)
	assert.Equal(t, "store-12", userID)

	_, err = VerifyHMACKey("store-12.deadbeef")
	assert.Error(t, err)
	_, err = VerifyHMACKey("no-dot")
	assert.Error(t, err)
	_, err = VerifyHMACKey(".abc")
	assert.Error(t, err)
}

func TestHMACKeyRequiresSecret(t *testing.T) {
	Configure(config.AuthConfig{})
	t.Cleanup(func() { configure(t) })

	_, err := VerifyHMACKey(GenerateHMACKey("u"))
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	configure(t)

	token, err := CreateToken("admin")
	require.NoError(t, err)

	claims, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	_, err = VerifyToken(token + "x")
	assert.Error(t, err)

	Configure(config.AuthConfig{JWTSecret: "rotated", APIMasterSecret: "master-test"})
	_, err = VerifyToken(token)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("guess", hash))
}

func TestKeyPreview(t *testing.T) {
	assert.Equal(t, "abc...6789", KeyPreview("abcdef0123456789"))
	assert.Equal(t, "****", KeyPreview("short"))
}
