package query

import (
	"log/slog"
	"sync"
)

// Loader reads the current result set of a query.
type Loader[T any] func() (Collection[T], error)

// Live is a Query backed by a loader and re-evaluated whenever its hub is
// notified.
type Live[T any] struct {
	hub    *Hub
	load   Loader[T]
	logger *slog.Logger
}

// NewLive returns a live query. A nil logger discards debug output.
func NewLive[T any](hub *Hub, load Loader[T], logger *slog.Logger) *Live[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Live[T]{hub: hub, load: load, logger: logger}
}

// Fetch implements Query.
func (l *Live[T]) Fetch() (Collection[T], error) {
	return l.load()
}

// Observe implements Query. Callbacks for one token never run concurrently.
func (l *Live[T]) Observe(fn func(Change[T])) Token {
	ch, cancel := l.hub.Subscribe()
	t := &liveToken{done: make(chan struct{}), cancel: cancel}

	current, err := l.load()
	if err != nil {
		t.Invalidate()
		fn(Change[T]{Kind: Error, Err: err})
		return t
	}
	fn(Change[T]{Kind: Initial, Items: current})

	go func() {
		defer cancel()
		for {
			select {
			case <-t.done:
				return
			case <-ch:
			}

			next, err := l.load()
			if t.invalidated() {
				return
			}
			if err != nil {
				l.logger.Debug("live query reload failed", "error", err)
				t.Invalidate()
				fn(Change[T]{Kind: Error, Err: err})
				return
			}

			diff := Compute(current.keys, next.keys)
			current = next
			if diff.IsEmpty() {
				continue
			}
			fn(Change[T]{Kind: Update, Items: next, Diff: diff})
		}
	}()
	return t
}

type liveToken struct {
	once   sync.Once
	done   chan struct{}
	cancel func()
}

func (t *liveToken) Invalidate() {
	t.once.Do(func() {
		close(t.done)
		t.cancel()
	})
}

func (t *liveToken) invalidated() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
