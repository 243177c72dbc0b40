// Package intern implements an open-addressed hash table used to canonicalize
// byte-string keys (string interning) to a single representative instance,
// and to hold arbitrary values keyed by those canonical strings.
//
// The table's probing, tombstone, and growth behavior are fixed: 70% load
// factor, growth to 2n+1, linear probing, tombstone reuse. The package is
// hand-written rather than built on a general-purpose map library because
// callers and tests depend on those exact internals, and no available
// hash-table package exposes or guarantees them.
package intern

import "hash/fnv"

// FNV1a32 returns the 32-bit FNV-1a hash of b, using the standard library's
// implementation of the exact variant the design calls for.
func FNV1a32(b []byte) uint32 {
	h := fnv.New32a()
	h.Write(b) //nolint:errcheck // hash.Hash.Write never fails
	return h.Sum32()
}
