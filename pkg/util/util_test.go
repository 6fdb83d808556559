package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(32)
	require.NoError(t, err)
	b, err := GenerateToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestGenerateNickname(t *testing.T) {
	re := regexp.MustCompile(`^[a-z]+_[a-z]+_[a-z0-9]{5}$`)

	for range 20 {
		n, err := GenerateNickname()
		require.NoError(t, err)
		assert.Regexp(t, re, n)
	}
}

func TestRequestID(t *testing.T) {
	assert.Len(t, RequestID(), 10)
	assert.NotEqual(t, RequestID(), RequestID())
}
