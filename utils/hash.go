package utils

import (
	"encoding/hex"
	"hash/fnv"
)

func U64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func Mix64(a, b uint64) uint64 {
	h := fnv.New64a()
	h.Write(U64ToBytes(a))
	h.Write(U64ToBytes(b))
	return h.Sum64()
}

// HashKey returns the hex encoded FNV-128a digest of parts. Every part is
// terminated by a NUL byte so ("ab", "c") and ("a", "bc") never collide.
func HashKey(parts ...string) string {
	h := fnv.New128a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
