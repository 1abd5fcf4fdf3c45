package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns a strong validator for data, used as ETag of
// rendered pages.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
