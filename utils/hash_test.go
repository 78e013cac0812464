package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashKey(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, HashKey("a", "b"), HashKey("a", "b"))
		assert.Len(t, HashKey("a"), 32)
	})

	t.Run("PartBoundaries", func(t *testing.T) {
		assert.NotEqual(t, HashKey("ab", "c"), HashKey("a", "bc"))
		assert.NotEqual(t, HashKey("a", "b"), HashKey("b", "a"))
	})
}

func TestFingerprintHex(t *testing.T) {
	assert.Equal(t, "0000000000000001", FingerprintHex(1))
	assert.Equal(t, "ffffffffffffffff", FingerprintHex(^uint64(0)))
	assert.Equal(t, FingerprintHex(FingerprintString("x")), FingerprintHex(U64("x")))
}
