package goShield

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashedIdentifierLen keeps stored digests short while leaving collisions
// irrelevant for log correlation.
const hashedIdentifierLen = 16

func hashIdentifier(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])[:hashedIdentifierLen]
}
