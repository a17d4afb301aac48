package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPasswordProducesVerifiableHash(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEqual(t, "s3cret-password", hash)

	require.True(t, VerifyPassword(hash, "s3cret-password"))
	require.False(t, VerifyPassword(hash, "wrong-password"))
}

func TestHashPasswordRejectsEmptyInput(t *testing.T) {
	_, err := HashPassword("")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHashPasswordSaltsEachHash(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestVerifyPasswordRejectsMalformedDigest(t *testing.T) {
	require.False(t, VerifyPassword("not-a-bcrypt-digest", "anything"))
}
