package credentials_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsuki42/reddit-clone/internal/infrastructure/credentials"
)

func TestBcryptHasher(t *testing.T) {
	hasher := credentials.NewBcryptHasher()

	hash, err := hasher.Hash("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
	assert.False(t, strings.Contains(hash, "hunter2"))

	assert.NoError(t, hasher.Verify(hash, "hunter2"))
	assert.Error(t, hasher.Verify(hash, "wrong"))
}

func TestHashesAreSalted(t *testing.T) {
	hasher := credentials.NewBcryptHasher()

	first, err := hasher.Hash("hunter2")
	require.NoError(t, err)
	second, err := hasher.Hash("hunter2")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
