package dockerfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHash(t *testing.T) {
	recipe := []byte("FROM node:20-alpine\nCMD [\"node\"]\n")

	a := ContentHash(recipe, "abc123")
	assert.Len(t, a, 12)
	assert.Equal(t, a, ContentHash(recipe, "abc123"), "deterministic for identical inputs")

	assert.NotEqual(t, a, ContentHash(recipe, "def456"), "input change alters the hash")
	assert.NotEqual(t, a, ContentHash([]byte("FROM alpine\n"), "abc123"), "recipe change alters the hash")

	// Framing keeps input boundaries significant.
	assert.NotEqual(t, ContentHash(recipe, "ab", "c"), ContentHash(recipe, "a", "bc"))
}
