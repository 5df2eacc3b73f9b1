// Package rngsrc is the RNG collaborator named in spec.md §6: a
// uniform integer generator in [0,B) used to pick the kick victim
// during eviction. Production use seeds from crypto/rand, matching the
// teacher's randomSlot; tests fix the seed with NewSeeded for
// deterministic kick sequences.
package rngsrc

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source produces uniform integers in [0, n) for kick-victim selection.
type Source struct {
	r *mrand.Rand
}

// New returns a Source seeded from the operating system's CSPRNG. Two
// Sources built with New are extremely unlikely to produce the same
// sequence.
func New() *Source {
	var seedBytes [8]byte
	if _, err := rand.Read(seedBytes[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable; fall back
		// to a time-independent fixed seed rather than panicking, since
		// kick-slot selection has no correctness dependency on seed
		// quality beyond avoiding pathological cycles.
		seedBytes = [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	}
	seed := int64(binary.LittleEndian.Uint64(seedBytes[:]))
	return &Source{r: mrand.New(mrand.NewSource(seed))}
}

// NewSeeded returns a Source with a caller-chosen seed, for
// reproducible test runs.
func NewSeeded(seed int64) *Source {
	return &Source{r: mrand.New(mrand.NewSource(seed))}
}

// Intn returns a uniform integer in [0, n).
func (s *Source) Intn(n int) int {
	return s.r.Intn(n)
}
