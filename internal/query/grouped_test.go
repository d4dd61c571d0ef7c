package query

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sized splits a source into "small" and "big" sections around a movable
// threshold.
type sized struct {
	src *source

	mu        sync.Mutex
	threshold int
}

func (s *sized) setThreshold(n int) {
	s.mu.Lock()
	s.threshold = n
	s.mu.Unlock()
}

func (s *sized) grouped() *Grouped[item] {
	return NewGrouped(func() []Section[item] {
		s.mu.Lock()
		limit := s.threshold
		s.mu.Unlock()
		return []Section[item]{
			{Title: "small", Query: s.src.query(func(it item) bool { return it.n < limit })},
			{Title: "big", Query: s.src.query(func(it item) bool { return it.n >= limit })},
		}
	}, func(it item) string { return it.id })
}

func newSized(items ...item) *sized {
	return &sized{src: newSource(items...), threshold: 5}
}

// =============================================================================
// Fetch Tests
// =============================================================================

func TestGroupedFetch(t *testing.T) {
	s := newSized(item{id: "a", n: 1}, item{id: "b", n: 7}, item{id: "c", n: 3})

	secs, err := s.grouped().Fetch()
	require.NoError(t, err)

	assert.Equal(t, 2, secs.NumberOfSections())
	assert.Equal(t, "small", secs.Title(0))
	assert.Equal(t, "big", secs.Title(1))
	assert.Equal(t, 2, secs.NumberOfItems(0))
	assert.Equal(t, 1, secs.NumberOfItems(1))
	assert.Equal(t, 0, secs.NumberOfItems(5))
	assert.Equal(t, 3, secs.Count())
	assert.Equal(t, 2, secs.Section(0).Len())

	path, ok := secs.IndexOfItem("c")
	require.True(t, ok)
	assert.Equal(t, IndexPath{Section: 0, Row: 1}, path)
	assert.Equal(t, "c", secs.At(path).id)

	path, ok = secs.IndexOf(item{id: "b"})
	require.True(t, ok)
	assert.Equal(t, IndexPath{Section: 1, Row: 0}, path)

	_, ok = secs.IndexOfItem("zzz")
	assert.False(t, ok)
}

func TestGroupedFetchError(t *testing.T) {
	s := newSized()
	s.src.err = errors.New("locked")

	_, err := s.grouped().Fetch()
	assert.EqualError(t, err, "locked")
}

// =============================================================================
// Observe Tests
// =============================================================================

func TestGroupedInitialIsSynchronous(t *testing.T) {
	s := newSized(item{id: "a", n: 1}, item{id: "b", n: 9})
	var rec recorder[GroupedChange[item]]

	tok := s.grouped().Observe(rec.add)
	defer tok.Invalidate()

	require.Equal(t, 1, rec.len())
	ev := rec.at(0)
	assert.Equal(t, Initial, ev.Kind)
	assert.Equal(t, 2, ev.Sections.NumberOfSections())
	assert.Equal(t, 2, ev.Sections.Count())
}

func TestGroupedUpdateIsScopedToSection(t *testing.T) {
	s := newSized(item{id: "a", n: 1}, item{id: "b", n: 9})
	var rec recorder[GroupedChange[item]]
	tok := s.grouped().Observe(rec.add)
	defer tok.Invalidate()

	s.src.set(item{id: "a", n: 1}, item{id: "b", n: 9}, item{id: "c", n: 6})

	require.Eventually(t, func() bool { return rec.len() == 2 }, waitFor, tick)
	ev := rec.at(1)
	assert.Equal(t, Update, ev.Kind)
	assert.Equal(t, 1, ev.Section)
	assert.Equal(t, []int{1}, ev.Diff.Insertions)
	assert.Equal(t, 1, ev.Sections.NumberOfItems(0))
	assert.Equal(t, 2, ev.Sections.NumberOfItems(1))

	// the unchanged section stays quiet
	assert.Never(t, func() bool { return rec.len() > 2 }, quiet, tick)
}

func TestGroupedMoveBetweenSections(t *testing.T) {
	s := newSized(item{id: "a", n: 1}, item{id: "b", n: 9})
	var rec recorder[GroupedChange[item]]
	tok := s.grouped().Observe(rec.add)
	defer tok.Invalidate()

	s.src.set(item{id: "a", n: 8, version: 1}, item{id: "b", n: 9})

	require.Eventually(t, func() bool { return rec.len() == 3 }, waitFor, tick)
	last := rec.at(2).Sections
	path, ok := last.IndexOfItem("a")
	require.True(t, ok)
	assert.Equal(t, 1, path.Section)
	assert.Equal(t, 0, last.NumberOfItems(0))
}

func TestGroupedReload(t *testing.T) {
	s := newSized(item{id: "a", n: 1}, item{id: "b", n: 6})
	var rec recorder[GroupedChange[item]]
	tok := s.grouped().Observe(rec.add)
	defer tok.Invalidate()

	s.setThreshold(10)
	tok.Reload()

	require.Equal(t, 2, rec.len())
	ev := rec.at(1)
	assert.Equal(t, Initial, ev.Kind)
	assert.Equal(t, 2, ev.Sections.NumberOfItems(0))
	assert.Equal(t, 0, ev.Sections.NumberOfItems(1))

	// observers from before the reload are detached
	assert.Eventually(t, func() bool { return s.src.hub.Len() == 2 }, waitFor, tick)
}

func TestGroupedInitialError(t *testing.T) {
	s := newSized(item{id: "a", n: 1})
	s.src.err = errors.New("corrupt")
	var rec recorder[GroupedChange[item]]

	tok := s.grouped().Observe(rec.add)

	require.Equal(t, 1, rec.len())
	assert.Equal(t, Error, rec.at(0).Kind)
	assert.EqualError(t, rec.at(0).Err, "corrupt")

	tok.Reload()
	assert.Equal(t, 1, rec.len())
}

func TestGroupedErrorIsTerminal(t *testing.T) {
	s := newSized(item{id: "a", n: 1}, item{id: "b", n: 9})
	var rec recorder[GroupedChange[item]]
	s.grouped().Observe(rec.add)

	s.src.fail(errors.New("gone"))

	require.Eventually(t, func() bool { return rec.len() == 2 }, waitFor, tick)
	assert.Equal(t, Error, rec.at(1).Kind)
	assert.Never(t, func() bool { return rec.len() > 2 }, quiet, tick)
	assert.Eventually(t, func() bool { return s.src.hub.Len() == 0 }, waitFor, tick)
}

func TestGroupedInvalidate(t *testing.T) {
	s := newSized(item{id: "a", n: 1})
	var rec recorder[GroupedChange[item]]
	tok := s.grouped().Observe(rec.add)

	tok.Invalidate()
	tok.Invalidate()
	s.src.set(item{id: "a", n: 1}, item{id: "b", n: 2})

	assert.Never(t, func() bool { return rec.len() > 1 }, quiet, tick)
	assert.Eventually(t, func() bool { return s.src.hub.Len() == 0 }, waitFor, tick)
}
