// Package ldcf implements the logarithmic dynamic cuckoo filter: a
// binary tree of bounded internal/cuckoo filters that grows by
// spawning children when a filter saturates, routing items by the
// bits of their fingerprint rather than by any external sharding key.
package ldcf

import (
	"math"

	"ldcf/internal/cuckoo"
	"ldcf/internal/hashing"
	"ldcf/internal/rngsrc"
)

// node wraps one cuckoo.Filter with the two child pointers the tree
// needs to route by fingerprint prefix. cuckoo.Filter itself carries
// no notion of parent/child; ownership of the tree shape lives here.
type node struct {
	cf             *cuckoo.Filter
	level          uint
	child0, child1 *node
}

// LDCF is an elastic approximate-set-membership structure: a root CF
// that, once full, offloads further growth onto freshly allocated
// children at increasing depth.
type LDCF struct {
	root       *node
	numBuckets uint64
	width      uint // w, shared fingerprint width for every node in the tree
	maxLevel   uint // w - 1, the hard depth cap (spec.md invariant L3)
	size       uint64
	rng        *rngsrc.Source
}

// Params holds the resolved sizing outputs, exposed for diagnostics
// and for the CLI harness to report what a given (epsilon, n, levels)
// triple actually produced.
type Params struct {
	NumBuckets      uint64
	Capacity        uint64
	PerFilterTarget float64
	Width           uint
}

// New builds an LDCF sized for target false-positive rate epsilon,
// expected population n, and expected tree depth levels (lambda in
// the sizing formula). levels must be at least 1.
func New(epsilon float64, n uint64, levels uint) *LDCF {
	return NewWithSource(epsilon, n, levels, rngsrc.New())
}

// NewWithSource is New with an explicit RNG source, for deterministic
// tests and benchmarks.
func NewWithSource(epsilon float64, n uint64, levels uint, rng *rngsrc.Source) *LDCF {
	if levels < 1 {
		levels = 1
	}
	params := sizeFilter(epsilon, n, levels)

	l := &LDCF{
		numBuckets: params.NumBuckets,
		width:      params.Width,
		maxLevel:   params.Width - 1,
		rng:        rng,
	}
	l.root = &node{
		cf:    cuckoo.New(params.NumBuckets, params.Width, 0, rng),
		level: 0,
	}
	return l
}

// sizeFilter implements the spec's sizing section: per-CF bucket
// count, capacity, per-CF false-positive target, and base fingerprint
// width, with N rounded up to a power of two (required for the
// i2 = i1 XOR hash(fp) involution) and w clamped to 32.
func sizeFilter(epsilon float64, n uint64, levels uint) Params {
	const B = 4.0
	const alpha = cuckoo.LoadFactor

	lambda := float64(levels)
	nf := float64(n)
	if nf < 1 {
		nf = 1
	}

	rawN := nf / (B * lambda)
	numBuckets := nextPowerOfTwo(uint64(math.Ceil(rawN)))
	if numBuckets < 1 {
		numBuckets = 1
	}

	capacity := alpha * float64(numBuckets) * B

	epsCF := 1 - math.Pow(1-epsilon, capacity/nf)
	if epsCF <= 0 {
		epsCF = math.SmallestNonzeroFloat64
	}
	if epsCF >= 1 {
		epsCF = 1 - 1e-12
	}

	w := math.Ceil(math.Log2(2*B/epsCF) + lambda)
	width := uint(w)
	if width < 1 {
		width = 1
	}
	if width > 32 {
		width = 32
	}

	return Params{
		NumBuckets:      numBuckets,
		Capacity:        uint64(alpha * float64(numBuckets) * B),
		PerFilterTarget: epsCF,
		Width:           width,
	}
}

func nextPowerOfTwo(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++
	return v
}

func prefixBit(fp uint64, level uint) bool {
	return (fp>>level)&1 == 0
}

func (l *LDCF) childFor(n *node, fp uint64) **node {
	if prefixBit(fp, n.level) {
		return &n.child0
	}
	return &n.child1
}

func (l *LDCF) newChild(level uint) *node {
	return &node{
		cf:    cuckoo.New(l.numBuckets, l.width, level, l.rng),
		level: level,
	}
}

// Insert adds item to the tree, descending past any saturated CFs and
// growing the tree on overflow. It panics with *cuckoo.InvariantBreachError
// if growth would exceed the depth cap L <= w-1 (spec.md invariant L3) —
// this signals a sizing mismatch between epsilon/n/levels and actual
// load, not a condition normal callers can recover from.
func (l *LDCF) Insert(item []byte) {
	fp := hashing.Item(item) & widthMask(l.width)

	cur := l.root
	for cur.cf.IsFull() {
		childSlot := l.childFor(cur, fp)
		if *childSlot == nil {
			l.growAt(cur.level + 1)
			*childSlot = l.newChild(cur.level + 1)
		}
		cur = *childSlot
	}

	victim := cur.cf.Insert(item, &fp)
	if victim != nil {
		l.handleVictim(cur, *victim)
	}
	l.size++
}

// growAt enforces the depth cap before a new level is allocated.
func (l *LDCF) growAt(level uint) {
	if level > l.maxLevel {
		panic(&cuckoo.InvariantBreachError{
			Operation: "grow",
			Message:   "tree depth would exceed fingerprint width cap (L > w-1)",
		})
	}
}

func (l *LDCF) handleVictim(parent *node, v cuckoo.Victim) {
	childLevel := parent.level + 1
	l.growAt(childLevel)

	if parent.child0 == nil {
		parent.child0 = l.newChild(childLevel)
	}
	if parent.child1 == nil {
		parent.child1 = l.newChild(childLevel)
	}

	target := parent.child0
	if !prefixBit(v.Fingerprint, parent.level) {
		target = parent.child1
	}
	target.cf.InsertVictim(v)
}

// Contains reports whether item might be present anywhere in the tree.
func (l *LDCF) Contains(item []byte) bool {
	fp := hashing.Item(item) & widthMask(l.width)

	cur := l.root
	for cur != nil {
		if cur.cf.Contains(item, &fp) {
			return true
		}
		if prefixBit(fp, cur.level) {
			cur = cur.child0
		} else {
			cur = cur.child1
		}
	}
	return false
}

// Remove deletes item from whichever CF along its routing path holds
// it, re-enabling inserts on that CF, and reports whether it found a
// match.
func (l *LDCF) Remove(item []byte) bool {
	fp := hashing.Item(item) & widthMask(l.width)

	cur := l.root
	for cur != nil {
		if cur.cf.Remove(item, &fp) {
			cur.cf.Reopen()
			l.size--
			return true
		}
		if prefixBit(fp, cur.level) {
			cur = cur.child0
		} else {
			cur = cur.child1
		}
	}
	return false
}

// Size returns the number of items currently tracked across the tree.
func (l *LDCF) Size() uint64 { return l.size }

// MemoryUsage sums EstimatedMemoryUsage across every CF allocated in
// the tree, for feeding into an internal/memstat.Tracker.
func (l *LDCF) MemoryUsage() uint64 {
	var total uint64
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		total += n.cf.EstimatedMemoryUsage()
		walk(n.child0)
		walk(n.child1)
	}
	walk(l.root)
	return total
}

// Depth reports the current tree height: the level of the deepest
// allocated node.
func (l *LDCF) Depth() uint {
	var walk func(n *node) uint
	walk = func(n *node) uint {
		if n == nil {
			return 0
		}
		best := n.level
		if d := walk(n.child0); d > best {
			best = d
		}
		if d := walk(n.child1); d > best {
			best = d
		}
		return best
	}
	return walk(l.root)
}

// LevelStats summarizes one depth of the tree: the filter count,
// aggregate item count, slot capacity, observed load factor, memory
// estimate, and eviction behavior
// across every CF allocated at that depth, folding each node's
// cuckoo.FilterStats snapshot into one row per level.
type LevelStats struct {
	Level             uint
	Filters           int
	Items             uint64
	Capacity          uint64
	LoadFactor        float64
	EvictionChains    uint64
	MaxEvictionLength int
	MemoryEstimate    uint64
}

// Stats returns one LevelStats entry per depth present in the tree,
// ordered by increasing level, mirroring the reference implementation's
// per-level diagnostic dump.
func (l *LDCF) Stats() []LevelStats {
	byLevel := map[uint]*LevelStats{}

	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		s, ok := byLevel[n.level]
		if !ok {
			s = &LevelStats{Level: n.level}
			byLevel[n.level] = s
		}
		cfStats := n.cf.Stats()
		s.Filters++
		s.Items += cfStats.Size
		s.Capacity += cfStats.Capacity
		s.EvictionChains += cfStats.EvictionChains
		if cfStats.MaxEvictionLength > s.MaxEvictionLength {
			s.MaxEvictionLength = cfStats.MaxEvictionLength
		}
		s.MemoryEstimate += cfStats.MemoryEstimate
		walk(n.child0)
		walk(n.child1)
	}
	walk(l.root)

	out := make([]LevelStats, 0, len(byLevel))
	for lvl := uint(0); lvl <= l.maxLevel; lvl++ {
		if s, ok := byLevel[lvl]; ok {
			if s.Capacity > 0 {
				s.LoadFactor = float64(s.Items) / float64(s.Capacity)
			}
			out = append(out, *s)
		}
	}
	return out
}

func widthMask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}
