package query

// Key identifies a row of a result set and fingerprints its content. Two
// loads that return the same ID with different versions report the row as
// modified.
type Key struct {
	ID      string
	Version uint64
}

// Collection is an immutable, index-addressable result set. Entities are
// materialised on access.
type Collection[T any] struct {
	keys  []Key
	at    func(int) T
	index map[string]int
}

// NewCollection builds a collection over keys, materialising the entity at i
// with at(i).
func NewCollection[T any](keys []Key, at func(int) T) Collection[T] {
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		index[k.ID] = i
	}
	return Collection[T]{keys: keys, at: at, index: index}
}

// SliceCollection builds a collection over already materialised items.
func SliceCollection[T any](items []T, key func(T) Key) Collection[T] {
	keys := make([]Key, len(items))
	for i, it := range items {
		keys[i] = key(it)
	}
	return NewCollection(keys, func(i int) T { return items[i] })
}

// Len returns the number of rows.
func (c Collection[T]) Len() int {
	return len(c.keys)
}

// At materialises row i. It panics when i is out of range.
func (c Collection[T]) At(i int) T {
	if i < 0 || i >= len(c.keys) {
		panic("query: index out of range")
	}
	return c.at(i)
}

// All materialises every row.
func (c Collection[T]) All() []T {
	out := make([]T, len(c.keys))
	for i := range c.keys {
		out[i] = c.at(i)
	}
	return out
}

// Keys returns the row keys in order.
func (c Collection[T]) Keys() []Key {
	out := make([]Key, len(c.keys))
	copy(out, c.keys)
	return out
}

// IndexOf returns the row holding id.
func (c Collection[T]) IndexOf(id string) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}
