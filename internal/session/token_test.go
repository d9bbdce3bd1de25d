package session

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := NewToken()
		require.NoError(t, err)
		assert.Len(t, tok, 32)

		raw, err := hex.DecodeString(tok)
		require.NoError(t, err)
		assert.Len(t, raw, tokenBytes)

		assert.False(t, seen[tok], "duplicate token %s", tok)
		seen[tok] = true
	}
}
