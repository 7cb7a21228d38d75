package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	passwordHash, err := HashPassword("coach-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, passwordHash)
	assert.True(t, CheckPasswordHash("coach-pass", passwordHash))
	assert.False(t, CheckPasswordHash("wrong-pass", passwordHash))

	passwordHash, err = HashPassword("")
	require.NoError(t, err)
	assert.NotEmpty(t, passwordHash)
	assert.True(t, CheckPasswordHash("", passwordHash))
}
