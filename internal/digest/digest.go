// Package digest computes canonical content fingerprints used for
// tamper-evidence. Fingerprints are advisory: they are stored and displayed
// but never enforced as a security boundary.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns a sha256 hex fingerprint over the canonical JSON form of v.
// Identical snapshots always produce identical fingerprints: encoding/json
// writes map keys in sorted order and struct fields in declaration order.
func Hash(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", v))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Equal reports whether two values have identical canonical serializations.
func Equal(a, b any) bool {
	return Hash(a) == Hash(b)
}
