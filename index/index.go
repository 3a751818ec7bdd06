package index

import "github.com/winnowdb/winnow/automaton"

// Reader is the read capability of an index snapshot. Implementations
// must support concurrent readers without external locking.
type Reader interface {
	// Terms returns a handle on the term dictionary for field, or nil
	// if the field has no terms at all. The caller must close a
	// non-nil handle on every exit path.
	Terms(field string) (TermDict, error)
}

// TermDict iterates a field's vocabulary. Matching visits every term
// accepted by m, in no particular order; the same term may be visited
// more than once if the dictionary's traversal reaches it by multiple
// paths. The term bytes passed to visit are only valid for the
// duration of the call, so the visitor must copy anything it keeps.
// The sequence is finite and restartable per call.
type TermDict interface {
	Matching(m automaton.Matcher, visit func(term []byte) error) error
	Close() error
}
