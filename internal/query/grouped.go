package query

import (
	"sync"
	"sync/atomic"
)

// Section is one named, independently observed query of a grouped
// collection.
type Section[T any] struct {
	Title string
	Query Query[T]
}

// IndexPath addresses a row inside a grouped collection.
type IndexPath struct {
	Section int
	Row     int
}

// Sections is an immutable two-dimensional snapshot of a grouped collection.
type Sections[T any] struct {
	titles []string
	cols   []Collection[T]
	id     func(T) string
}

// NumberOfSections returns the section count.
func (s Sections[T]) NumberOfSections() int {
	return len(s.cols)
}

// NumberOfItems returns the row count of section.
func (s Sections[T]) NumberOfItems(section int) int {
	if section < 0 || section >= len(s.cols) {
		return 0
	}
	return s.cols[section].Len()
}

// Title returns the title of section.
func (s Sections[T]) Title(section int) string {
	return s.titles[section]
}

// Section returns the collection backing section.
func (s Sections[T]) Section(section int) Collection[T] {
	return s.cols[section]
}

// At materialises the row at path.
func (s Sections[T]) At(path IndexPath) T {
	return s.cols[path.Section].At(path.Row)
}

// Count returns the number of rows across all sections.
func (s Sections[T]) Count() int {
	n := 0
	for _, c := range s.cols {
		n += c.Len()
	}
	return n
}

// IndexOfItem finds the row holding id, scanning every section.
func (s Sections[T]) IndexOfItem(id string) (IndexPath, bool) {
	for sec, c := range s.cols {
		if row, ok := c.IndexOf(id); ok {
			return IndexPath{Section: sec, Row: row}, true
		}
	}
	return IndexPath{}, false
}

// IndexOf finds item by its identity.
func (s Sections[T]) IndexOf(item T) (IndexPath, bool) {
	return s.IndexOfItem(s.id(item))
}

// GroupedChange is an event of a grouped collection. Update events are
// scoped to a single section.
type GroupedChange[T any] struct {
	Kind     ChangeKind
	Sections Sections[T]
	Section  int
	Diff     Diff
	Err      error
}

// Grouped composes several section queries into one sectioned collection.
// The section list is rebuilt by build on every observation and on Reload,
// so sections that depend on the current day can move their boundaries.
type Grouped[T any] struct {
	build func() []Section[T]
	id    func(T) string
}

// NewGrouped returns a grouped collection. id extracts the identity used by
// IndexOf.
func NewGrouped[T any](build func() []Section[T], id func(T) string) *Grouped[T] {
	return &Grouped[T]{build: build, id: id}
}

// Fetch reads every section once.
func (g *Grouped[T]) Fetch() (Sections[T], error) {
	sections := g.build()
	out := Sections[T]{
		titles: make([]string, len(sections)),
		cols:   make([]Collection[T], len(sections)),
		id:     g.id,
	}
	for i, s := range sections {
		c, err := s.Query.Fetch()
		if err != nil {
			return Sections[T]{}, err
		}
		out.titles[i] = s.Title
		out.cols[i] = c
	}
	return out, nil
}

// Observe delivers an Initial event synchronously with every section, then
// per-section updates. Reload on the returned token rebuilds the sections
// and delivers a fresh Initial event.
func (g *Grouped[T]) Observe(fn func(GroupedChange[T])) *GroupedToken[T] {
	t := &GroupedToken[T]{g: g, fn: fn}
	t.start()
	return t
}

// GroupedToken controls a grouped observation.
type GroupedToken[T any] struct {
	g  *Grouped[T]
	fn func(GroupedChange[T])

	closed atomic.Bool

	mu     sync.Mutex
	emitMu sync.Mutex
	gen    int
	ready  bool
	titles []string
	cols   []Collection[T]
	err    error
	tokens []Token
}

// Invalidate detaches every section observer. It never blocks.
func (t *GroupedToken[T]) Invalidate() {
	if t.closed.CompareAndSwap(false, true) {
		go t.teardown()
	}
}

// Reload rebuilds the sections and emits a new Initial event. It must not be
// called from inside the observer callback.
func (t *GroupedToken[T]) Reload() {
	if t.closed.Load() {
		return
	}
	t.start()
}

func (t *GroupedToken[T]) teardown() {
	t.mu.Lock()
	tokens := t.tokens
	t.tokens = nil
	t.gen++
	t.mu.Unlock()
	for _, tok := range tokens {
		tok.Invalidate()
	}
}

func (t *GroupedToken[T]) start() {
	sections := t.g.build()

	t.mu.Lock()
	old := t.tokens
	t.gen++
	gen := t.gen
	t.ready = false
	t.err = nil
	t.tokens = nil
	t.titles = make([]string, len(sections))
	t.cols = make([]Collection[T], len(sections))
	for i, s := range sections {
		t.titles[i] = s.Title
	}
	t.mu.Unlock()

	for _, tok := range old {
		tok.Invalidate()
	}

	tokens := make([]Token, 0, len(sections))
	for i, s := range sections {
		i := i
		tokens = append(tokens, s.Query.Observe(func(c Change[T]) {
			t.handle(gen, i, c)
		}))
	}

	t.mu.Lock()
	if gen != t.gen || t.closed.Load() {
		t.mu.Unlock()
		for _, tok := range tokens {
			tok.Invalidate()
		}
		return
	}
	t.tokens = tokens
	t.ready = true
	ev := GroupedChange[T]{Kind: Initial, Sections: t.snapshotLocked()}
	if t.err != nil {
		ev = GroupedChange[T]{Kind: Error, Err: t.err}
		t.closed.Store(true)
		go t.teardown()
	}
	t.emitLocked(ev)
}

// handle folds a section event into the combined state. Before the grouped
// Initial event has been sent, updates only refresh the state.
func (t *GroupedToken[T]) handle(gen, section int, c Change[T]) {
	t.mu.Lock()
	if gen != t.gen || t.closed.Load() {
		t.mu.Unlock()
		return
	}
	switch c.Kind {
	case Initial:
		t.cols[section] = c.Items
		t.mu.Unlock()
	case Update:
		t.cols[section] = c.Items
		if !t.ready {
			t.mu.Unlock()
			return
		}
		t.emitLocked(GroupedChange[T]{
			Kind:     Update,
			Sections: t.snapshotLocked(),
			Section:  section,
			Diff:     c.Diff,
		})
	case Error:
		if t.err == nil {
			t.err = c.Err
		}
		if !t.ready {
			t.mu.Unlock()
			return
		}
		t.closed.Store(true)
		go t.teardown()
		t.emitLocked(GroupedChange[T]{Kind: Error, Section: section, Err: c.Err})
	default:
		t.mu.Unlock()
	}
}

// emitLocked hands ev to the observer. It is entered with mu held and
// releases it before calling out, keeping delivery ordered through emitMu.
func (t *GroupedToken[T]) emitLocked(ev GroupedChange[T]) {
	t.emitMu.Lock()
	t.mu.Unlock()
	defer t.emitMu.Unlock()
	if ev.Kind != Error && t.closed.Load() {
		return
	}
	t.fn(ev)
}

func (t *GroupedToken[T]) snapshotLocked() Sections[T] {
	titles := make([]string, len(t.titles))
	copy(titles, t.titles)
	cols := make([]Collection[T], len(t.cols))
	copy(cols, t.cols)
	return Sections[T]{titles: titles, cols: cols, id: t.g.id}
}
