package cacheengine

import (
	"fmt"
)

// InvariantViolation reports a detected break of one of the cache's
// cross-structure invariants (I1-I5). The engine logs it and treats the
// lookup as a cache miss; it is not returned to callers.
type InvariantViolation struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("cacheengine: invariant %s violated: %s", e.Invariant, e.Detail)
}

// IndexError wraps a failure returned by the configured vector index
// backend (dimension mismatch, backend-specific I/O failure, and so on).
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("cacheengine: vector index %s: %v", e.Op, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}
