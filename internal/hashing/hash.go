// Package hashing is the hash-source collaborator described in
// spec.md §6: an opaque hash(item)->integer, reused to map a
// fingerprint integer back onto itself for the i2 = i1 XOR hash(fp)
// involution. Both entry points are backed by the same xxHash
// implementation so that identity holds.
package hashing

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Item hashes an arbitrary byte string, as used to derive a
// fingerprint and a first candidate bucket index.
func Item(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Fingerprint re-hashes a fingerprint-derived integer to compute the
// alternate bucket index. Reusing the same hash family here is
// required for (i1 XOR hash(fp)) XOR hash(fp) == i1.
func Fingerprint(fp uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], fp)
	return xxhash.Sum64(buf[:])
}
