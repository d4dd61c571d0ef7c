// Package query provides observable, index-addressable live views over an
// engine's records. Engines supply a loader that reads the current result set
// and a Hub they notify after each committed write; the package turns
// successive loads into initial, update and error events with
// insertion/deletion/modification index sets.
package query

// ChangeKind tells observers which kind of event they received.
type ChangeKind int

const (
	// Initial carries the first result set. It is always delivered
	// synchronously from Observe.
	Initial ChangeKind = iota
	// Update carries a new result set and the diff against the previous one.
	Update
	// Error is terminal: no further events follow.
	Error
)

func (k ChangeKind) String() string {
	switch k {
	case Initial:
		return "initial"
	case Update:
		return "update"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Change is one event delivered to an observer.
type Change[T any] struct {
	Kind  ChangeKind
	Items Collection[T]
	Diff  Diff
	Err   error
}

// Token detaches an observer. Invalidate is idempotent, safe to call from
// any goroutine, including from inside the observer callback, and never
// blocks.
type Token interface {
	Invalidate()
}

// Query is a live, sorted, filtered view over one kind of entity.
type Query[T any] interface {
	// Fetch reads the current result set once.
	Fetch() (Collection[T], error)
	// Observe delivers the initial result set synchronously and later
	// updates from a background goroutine until the token is invalidated.
	Observe(fn func(Change[T])) Token
}
