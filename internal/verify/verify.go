// Package verify fingerprints image buffers so a run can tell whether
// applying rules actually changed any bytes.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex encoded SHA-256 of data.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func Changed(before, after string) bool {
	return before != after
}
