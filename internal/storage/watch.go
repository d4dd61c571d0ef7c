package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
)

// watchPrefix holds the handshake key used to confirm a subscription is live.
const watchPrefix = "watch:"

// ErrWatchTimeout is returned when badger does not confirm a subscription.
var ErrWatchTimeout = errors.New("subscription did not become ready")

// Watch is a native change feed over a set of key prefixes.
type Watch struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

// Watch subscribes to commits touching any of prefixes and calls onChange
// once per committed batch. It returns after badger has confirmed the
// subscription, so every commit made after Watch returns is observed.
func (d *DB) Watch(prefixes []string, onChange func(keys []string)) (*Watch, error) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watch{cancel: cancel, done: make(chan struct{})}

	token := []byte(fmt.Sprintf("%s%d", watchPrefix, time.Now().UnixNano()))
	ready := make(chan struct{})
	var readyOnce sync.Once

	matches := []pb.Match{{Prefix: []byte(watchPrefix)}}
	for _, p := range prefixes {
		matches = append(matches, pb.Match{Prefix: []byte(p)})
	}

	go func() {
		defer close(w.done)
		err := d.db.Subscribe(ctx, func(kvs *badger.KVList) error {
			var changed []string
			for _, kv := range kvs.Kv {
				if bytes.HasPrefix(kv.Key, []byte(watchPrefix)) {
					if bytes.Equal(kv.Key, token) {
						readyOnce.Do(func() { close(ready) })
					}
					continue
				}
				changed = append(changed, string(kv.Key))
			}
			if len(changed) > 0 {
				onChange(changed)
			}
			return nil
		}, matches)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.err = err
			d.logger.Warn("watch stopped", "error", err)
		}
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for {
		if err := d.db.Update(func(txn *badger.Txn) error {
			return txn.Set(token, nil)
		}); err != nil {
			w.Close()
			return nil, err
		}
		select {
		case <-ready:
			_ = d.db.Update(func(txn *badger.Txn) error {
				return txn.Delete(token)
			})
			return w, nil
		case <-deadline:
			w.Close()
			return nil, ErrWatchTimeout
		case <-tick.C:
		}
	}
}

// Close stops the feed and waits for the subscriber goroutine to exit.
func (w *Watch) Close() {
	w.once.Do(func() {
		w.cancel()
		<-w.done
	})
}

// Err returns the error that stopped the feed, if any.
func (w *Watch) Err() error {
	select {
	case <-w.done:
		return w.err
	default:
		return nil
	}
}
