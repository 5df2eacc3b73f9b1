// Package cuckoo implements a single bounded cuckoo filter: bit-packed
// fingerprints, two-choice hashing, and bounded random-walk eviction.
// A Filter never grows on its own — when it saturates it freezes and
// hands a Victim fingerprint back to the caller (the LDCF tree in
// package ldcf), which is responsible for routing the victim to a
// freshly created child.
package cuckoo

import (
	"ldcf/internal/bucket"
	"ldcf/internal/hashing"
	"ldcf/internal/rngsrc"
)

// LoadFactor is the maximum fraction of slots considered usable before
// a filter is treated as full (α in the design).
const LoadFactor = 0.935

// DefaultMaxKicks bounds the random-walk eviction loop.
const DefaultMaxKicks = 100

// Victim is a fingerprint evicted after exhausting the kick budget,
// carrying its full-width value (including the bits this filter's
// depth had already consumed) so a child filter one level deeper can
// keep routing it without losing information.
type Victim struct {
	Fingerprint uint64
	Index       uint64
}

// Filter is one bounded cuckoo filter at a fixed depth in an LDCF
// tree. N and w are shared across every filter in a tree; only the
// depth L differs between a filter and its children.
type Filter struct {
	numBuckets uint64
	width      uint // w: base fingerprint width shared across the tree
	level      uint // L: depth of this filter
	effWidth   uint // w_eff = w - L, cached

	maxKicks int
	capacity uint64
	size     uint64

	acceptValues bool

	storage  []byte
	occupied []uint64 // bitmap, numBuckets*bucket.SlotCount bits

	evictionChains    uint64 // inserts that required at least one eviction
	maxEvictionLength int    // longest eviction chain seen

	rng *rngsrc.Source
}

// New creates a filter with numBuckets buckets (the caller must have
// already rounded this to a power of two so the i1/i2 XOR identity
// holds), base fingerprint width, and depth level. A malformed sizing
// triple is a construction-time programming error (the LDCF tree is
// the only caller, and it always derives these from sizeFilter), so
// New panics rather than returning an error.
func New(numBuckets uint64, width, level uint, rng *rngsrc.Source) *Filter {
	if numBuckets == 0 || level >= width {
		panic(&InvariantBreachError{Operation: "new", Message: ErrConfigInvalid.Error()})
	}

	effWidth := width - level
	byteSize := bucket.ByteSize(effWidth)

	f := &Filter{
		numBuckets:   numBuckets,
		width:        width,
		level:        level,
		effWidth:     effWidth,
		maxKicks:     DefaultMaxKicks,
		capacity:     uint64(LoadFactor * float64(numBuckets) * float64(bucket.SlotCount)),
		acceptValues: true,
		storage:      make([]byte, uint64(byteSize)*numBuckets),
		occupied:     make([]uint64, (numBuckets*uint64(bucket.SlotCount)+63)/64),
		rng:          rng,
	}
	return f
}

// Level returns this filter's depth in the tree.
func (f *Filter) Level() uint { return f.level }

// NumBuckets returns the shared bucket count N.
func (f *Filter) NumBuckets() uint64 { return f.numBuckets }

// Size returns the number of fingerprints currently stored.
func (f *Filter) Size() uint64 { return f.size }

// Capacity returns floor(N*B*alpha).
func (f *Filter) Capacity() uint64 { return f.capacity }

// AcceptsValues reports whether this filter is still admitting new
// inserts (false once it has emitted a Victim).
func (f *Filter) AcceptsValues() bool { return f.acceptValues }

// Reopen re-enables inserts on a filter that had frozen. The LDCF tree
// calls this after a successful Remove frees up a slot.
func (f *Filter) Reopen() { f.acceptValues = true }

// IsFull reports whether the filter is at or past capacity, or has
// already emitted a victim and frozen.
func (f *Filter) IsFull() bool {
	return f.size >= f.capacity || !f.acceptValues
}

// Insert places item into the filter. If fp is non-nil it is used as
// the precomputed full-width fingerprint (hash(item) mod 2^w); this is
// how the LDCF tree avoids re-hashing at every level of descent.
// Insert returns a non-nil Victim if eviction exhausted maxKicks; the
// filter then freezes itself and the caller must route the victim to a
// child. A frozen filter returns nil without placing the item. A nil
// Victim also covers both a normal placement and the
// duplicate-saturation soft outcome (spec.md §7) — both mean "treat
// the item as present," and the two are not distinguished because
// neither requires caller action.
func (f *Filter) Insert(item []byte, fp *uint64) *Victim {
	if len(item) == 0 {
		panic(&InvariantBreachError{Operation: "insert", Message: ErrInvalidKey.Error()})
	}
	if !f.acceptValues {
		return nil
	}

	h := hashing.Item(item)

	var fullFP uint64
	if fp != nil {
		fullFP = *fp
	} else {
		fullFP = h & widthMask(f.width)
	}

	i1 := h % f.numBuckets
	i2 := (i1 ^ hashing.Fingerprint(fullFP)) % f.numBuckets

	savedBits := fullFP & levelMask(f.level)
	fpEff := uint32(fullFP >> f.level)

	if f.countMatches(i1, i2, fpEff) >= bucket.SlotCount {
		return nil // DuplicateSaturated: treated as already present.
	}

	if f.insertDirect(i1, i2, fpEff) == nil {
		return nil
	}

	return f.evictAndInsert(i1, fullFP, savedBits, fpEff)
}

// insertDirect tries both candidate buckets without eviction. It
// returns ErrFilterFull, kept as an internal signal rather than
// surfaced to Insert's caller, when neither has a free slot.
func (f *Filter) insertDirect(i1, i2 uint64, fpEff uint32) error {
	if slot, ok := f.firstFreeSlot(i1); ok {
		f.place(i1, slot, fpEff)
		f.size++
		return nil
	}
	if slot, ok := f.firstFreeSlot(i2); ok {
		f.place(i2, slot, fpEff)
		f.size++
		return nil
	}
	return ErrFilterFull
}

func (f *Filter) evictAndInsert(i1 uint64, fullFP, savedBits uint64, fpEff uint32) *Victim {
	cur := i1
	victimIndex := cur
	fp := fullFP
	pending := fpEff

	f.evictionChains++

	for k := 0; k < f.maxKicks; k++ {
		slot := f.rng.Intn(bucket.SlotCount)
		evictedEff := f.readSlot(cur, slot)
		f.writeSlot(cur, slot, pending)

		fp = (uint64(evictedEff) << f.level) | savedBits
		victimIndex = cur
		cur = (cur ^ hashing.Fingerprint(fp)) % f.numBuckets
		pending = uint32(fp >> f.level)

		if freeSlot, ok := f.firstFreeSlot(cur); ok {
			f.place(cur, freeSlot, pending)
			f.size++
			if k+1 > f.maxEvictionLength {
				f.maxEvictionLength = k + 1
			}
			return nil
		}
	}

	if f.maxKicks > f.maxEvictionLength {
		f.maxEvictionLength = f.maxKicks
	}
	f.acceptValues = false
	return &Victim{Fingerprint: fp, Index: victimIndex}
}

// InsertVictim places a pre-located Victim into bucket[v.Index] at
// this filter's depth, without searching for an alternate bucket. The
// caller (the LDCF tree) guarantees this filter was just created and
// therefore has a free slot; failing to find one is a programmer
// error, not a runtime condition to recover from.
func (f *Filter) InsertVictim(v Victim) {
	fpEff := uint32(v.Fingerprint >> f.level)
	slot, ok := f.firstFreeSlot(v.Index)
	if !ok {
		panic(&InvariantBreachError{
			Operation: "insert-victim",
			Message:   "no empty slot in a filter that should have been freshly allocated",
		})
	}
	f.place(v.Index, slot, fpEff)
	f.size++
}

// Contains reports whether item might be present.
func (f *Filter) Contains(item []byte, fp *uint64) bool {
	i1, i2, fpEff := f.candidates(item, fp)
	return f.bucketHas(i1, fpEff) || f.bucketHas(i2, fpEff)
}

// Remove deletes one matching fingerprint if present and returns
// whether it found one. Deletion is approximate: it removes whatever
// slot holds a matching fingerprint, which may belong to a different
// item that happened to collide.
func (f *Filter) Remove(item []byte, fp *uint64) bool {
	i1, i2, fpEff := f.candidates(item, fp)
	if slot, ok := f.firstMatch(i1, fpEff); ok {
		f.clear(i1, slot)
		f.size--
		return true
	}
	if slot, ok := f.firstMatch(i2, fpEff); ok {
		f.clear(i2, slot)
		f.size--
		return true
	}
	return false
}

func (f *Filter) candidates(item []byte, fp *uint64) (i1, i2 uint64, fpEff uint32) {
	if len(item) == 0 {
		panic(&InvariantBreachError{Operation: "lookup", Message: ErrInvalidKey.Error()})
	}

	h := hashing.Item(item)

	var fullFP uint64
	if fp != nil {
		fullFP = *fp
	} else {
		fullFP = h & widthMask(f.width)
	}

	i1 = h % f.numBuckets
	i2 = (i1 ^ hashing.Fingerprint(fullFP)) % f.numBuckets
	fpEff = uint32(fullFP >> f.level)
	return
}

// bucket access helpers

func (f *Filter) bucketBytes(idx uint64) bucket.Bucket {
	byteSize := bucket.ByteSize(f.effWidth)
	start := idx * uint64(byteSize)
	return bucket.New(f.storage[start : start+uint64(byteSize)])
}

func (f *Filter) readSlot(idx uint64, slot int) uint32 {
	return f.bucketBytes(idx).Read(slot, f.effWidth)
}

func (f *Filter) writeSlot(idx uint64, slot int, value uint32) {
	f.bucketBytes(idx).Write(slot, value, f.effWidth)
}

func (f *Filter) place(idx uint64, slot int, value uint32) {
	f.writeSlot(idx, slot, value)
	f.setOccupied(idx, slot, true)
}

func (f *Filter) clear(idx uint64, slot int) {
	f.setOccupied(idx, slot, false)
}

func (f *Filter) bitIndex(idx uint64, slot int) uint64 {
	return idx*uint64(bucket.SlotCount) + uint64(slot)
}

func (f *Filter) isOccupied(idx uint64, slot int) bool {
	bit := f.bitIndex(idx, slot)
	return f.occupied[bit/64]&(1<<(bit%64)) != 0
}

func (f *Filter) setOccupied(idx uint64, slot int, v bool) {
	bit := f.bitIndex(idx, slot)
	word, mask := bit/64, uint64(1)<<(bit%64)
	if v {
		f.occupied[word] |= mask
	} else {
		f.occupied[word] &^= mask
	}
}

func (f *Filter) firstFreeSlot(idx uint64) (int, bool) {
	for s := 0; s < bucket.SlotCount; s++ {
		if !f.isOccupied(idx, s) {
			return s, true
		}
	}
	return 0, false
}

func (f *Filter) firstMatch(idx uint64, fpEff uint32) (int, bool) {
	for s := 0; s < bucket.SlotCount; s++ {
		if f.isOccupied(idx, s) && f.readSlot(idx, s) == fpEff {
			return s, true
		}
	}
	return 0, false
}

func (f *Filter) bucketHas(idx uint64, fpEff uint32) bool {
	_, ok := f.firstMatch(idx, fpEff)
	return ok
}

func (f *Filter) countMatches(i1, i2 uint64, fpEff uint32) int {
	count := 0
	for s := 0; s < bucket.SlotCount; s++ {
		if f.isOccupied(i1, s) && f.readSlot(i1, s) == fpEff {
			count++
		}
		if f.isOccupied(i2, s) && f.readSlot(i2, s) == fpEff {
			count++
		}
	}
	return count
}

func widthMask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

func levelMask(level uint) uint64 {
	return widthMask(level)
}

// EstimatedMemoryUsage approximates this filter's own heap footprint,
// mirroring the teacher's memory-accounting convention; it excludes
// children, which account for themselves.
func (f *Filter) EstimatedMemoryUsage() uint64 {
	return uint64(len(f.storage)) + uint64(len(f.occupied))*8
}

// FilterStats is a point-in-time snapshot of this filter's size and
// eviction behavior, in the shape of the teacher's FilterStats
// trimmed to the fields an unsynchronized, single-CF-per-node tree
// actually needs: no per-operation counters or timestamps, since
// spec §5 gives this library no mutator to count across.
type FilterStats struct {
	Size              uint64
	Capacity          uint64
	LoadFactor        float64
	EvictionChains    uint64
	MaxEvictionLength int
	MemoryEstimate    uint64
}

// Stats returns a FilterStats snapshot for this filter.
func (f *Filter) Stats() FilterStats {
	var loadFactor float64
	if f.capacity > 0 {
		loadFactor = float64(f.size) / float64(f.capacity)
	}
	return FilterStats{
		Size:              f.size,
		Capacity:          f.capacity,
		LoadFactor:        loadFactor,
		EvictionChains:    f.evictionChains,
		MaxEvictionLength: f.maxEvictionLength,
		MemoryEstimate:    f.EstimatedMemoryUsage(),
	}
}
