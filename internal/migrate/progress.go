package migrate

import "sync"

// Progress reports how far a migration has got as a fraction in [0, 1].
// The fraction never decreases.
type Progress struct {
	mu       sync.Mutex
	fraction float64
	done     chan struct{}
	closed   bool
	nextID   int
	watchers map[int]func(float64)
}

func newProgress() *Progress {
	return &Progress{done: make(chan struct{}), watchers: make(map[int]func(float64))}
}

// Fraction returns the completed fraction.
func (p *Progress) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fraction
}

// Done is closed when the migration has finished, successfully or not.
func (p *Progress) Done() <-chan struct{} {
	return p.done
}

// Observe calls fn with the current fraction and then with every increase.
// The returned function stops the calls.
func (p *Progress) Observe(fn func(float64)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = fn
	current := p.fraction
	p.mu.Unlock()

	fn(current)
	return func() {
		p.mu.Lock()
		delete(p.watchers, id)
		p.mu.Unlock()
	}
}

// set raises the fraction to f. Lower values are ignored.
func (p *Progress) set(f float64) {
	if f > 1 {
		f = 1
	}
	p.mu.Lock()
	if f <= p.fraction {
		p.mu.Unlock()
		return
	}
	p.fraction = f
	watchers := make([]func(float64), 0, len(p.watchers))
	for _, fn := range p.watchers {
		watchers = append(watchers, fn)
	}
	p.mu.Unlock()

	for _, fn := range watchers {
		fn(f)
	}
}

func (p *Progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.done)
	}
}
