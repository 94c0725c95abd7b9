package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// MemoKey returns a content-addressed storage key: prefix:kind:sha256(input).
func MemoKey(prefix, kind, input string) string {
	sum := sha256.Sum256([]byte(input))
	return prefix + ":" + kind + ":" + hex.EncodeToString(sum[:])
}
