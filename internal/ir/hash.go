package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefix for content-addressed module identity. The version
// suffix enables future algorithm migration.
const domainModule = "mica/module/v1"

// Fingerprint computes a content-addressed identity for the module:
// SHA-256 over the canonical textual form with domain separation. Two
// modules with the same fingerprint print identically, so the
// fingerprint is stable across process restarts and suitable as a key
// in the rewrite trace store.
func Fingerprint(m *Module) string {
	h := sha256.New()
	h.Write([]byte(domainModule))
	h.Write([]byte{0x00}) // null separator avoids domain/data boundary ambiguity
	h.Write([]byte(Print(m)))
	return hex.EncodeToString(h.Sum(nil))
}
