package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// OwnerKey maps a user or guest id onto a stable hex prefix for storage keys,
// so raw identities never appear in object paths.
func OwnerKey(userID string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(userID)))
	return hex.EncodeToString(sum[:])
}
