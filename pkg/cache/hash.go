package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/matzehuels/semiframes/pkg/family"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// FamilyHash returns a stable content hash of f read over {1..n}. Two
// families hash equal iff they have the same members and the same n.
func FamilyHash(f family.Family, n int) string {
	buf := make([]byte, 0, 1+4*len(f))
	buf = append(buf, byte(n))
	for _, m := range f {
		buf = binary.BigEndian.AppendUint32(buf, m)
	}
	return Hash(buf)
}
