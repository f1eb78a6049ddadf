package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyAPIKey(t *testing.T) {
	hash, err := HashAPIKey("sekret-key-123")
	require.NoError(t, err)
	assert.NotEqual(t, "sekret-key-123", hash)

	assert.True(t, VerifyAPIKey(hash, "sekret-key-123"))
	assert.False(t, VerifyAPIKey(hash, "wrong-key"))
}

func TestVerifyAPIKeyAgainstAny(t *testing.T) {
	h1, err := HashAPIKey("key-one")
	require.NoError(t, err)
	h2, err := HashAPIKey("key-two")
	require.NoError(t, err)

	hashes := []string{h1, h2}
	assert.True(t, VerifyAPIKeyAgainstAny(hashes, "key-two"))
	assert.False(t, VerifyAPIKeyAgainstAny(hashes, "key-three"))
}
