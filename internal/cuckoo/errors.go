package cuckoo

import "fmt"

// InvariantBreachError signals a fatal internal invariant violation:
// a Victim handed to a child filter found no empty slot, the LDCF tree
// was asked to grow past its fingerprint-width cap, or a caller passed
// an empty item (ErrInvalidKey) or a malformed sizing triple
// (ErrConfigInvalid). Per spec.md §7, InvariantBreach is not
// recoverable and the caller is not expected to catch it.
type InvariantBreachError struct {
	Operation string
	Message   string
}

func (e *InvariantBreachError) Error() string {
	return fmt.Sprintf("cuckoo: invariant breach during %s: %s", e.Operation, e.Message)
}

// FilterError is the internal error-kind type carried over from the
// teacher's FilterError: a plain Operation/Message pair. Unlike the
// teacher, none of these ever reach a library caller as a returned
// error — spec §7 only recognizes bool/nil soft outcomes and panic
// for InvariantBreach, so each sentinel below is either consumed
// internally (ErrFilterFull) or wrapped into an InvariantBreachError
// at the public boundary (ErrInvalidKey, ErrConfigInvalid).
type FilterError struct {
	Operation string
	Message   string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("cuckoo: %s: %s", e.Operation, e.Message)
}

var (
	// ErrFilterFull is the internal signal insertDirect returns when
	// neither candidate bucket has a free slot; Insert uses it to
	// decide to fall through to eviction rather than surfacing it.
	ErrFilterFull = &FilterError{Operation: "insert", Message: "both candidate buckets are full"}

	// ErrInvalidKey marks an empty item passed to Insert, Contains, or
	// Remove. An empty key is a caller contract violation, not a
	// probabilistic outcome, so it is raised as an InvariantBreachError
	// rather than returned.
	ErrInvalidKey = &FilterError{Operation: "key", Message: "item must not be empty"}

	// ErrConfigInvalid marks a malformed (numBuckets, width, level)
	// triple passed to New. Raised as an InvariantBreachError since a
	// bad sizing triple is a construction-time programming error.
	ErrConfigInvalid = &FilterError{Operation: "new", Message: "numBuckets must be > 0 and level must be < width"}
)
