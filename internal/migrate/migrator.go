// Package migrate copies the legacy document store into the relational store.
//
// A migration reads one snapshot of the source, stages the whole graph in a
// single destination transaction, verifies the record counts and reports
// completion exactly once. The source is never written.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/tiendc/go-deepcopy"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/logging"
)

// Migration states.
const (
	StateIdle      = "idle"
	StateReading   = "reading"
	StateWriting   = "writing"
	StateVerifying = "verifying"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

const (
	eventRead    = "read"
	eventWrite   = "write"
	eventVerify  = "verify"
	eventSucceed = "succeed"
	eventFail    = "fail"
)

// Source is the store being migrated from.
type Source interface {
	Export(ctx context.Context) (*datum.Graph, error)
}

// Destination is the store being migrated into.
type Destination interface {
	Import(ctx context.Context, graph *datum.Graph, progress func(done, total int)) error
	Counts(ctx context.Context) (datum.Counts, error)
}

// Result describes a finished migration.
type Result struct {
	Counts   datum.Counts
	Duration time.Duration
	Err      error
}

// Migrator starts migrations. Start returns immediately; completion is
// called exactly once.
type Migrator interface {
	Start(ctx context.Context, dest Destination, completion func(Result)) *Progress
}

// Options configures an Engine.
type Options struct {
	Logger *slog.Logger
	// Dispatch runs progress and completion callbacks. The default runs them
	// on the migration goroutine.
	Dispatch func(func())
}

// Engine migrates one source once.
type Engine struct {
	source Source
	opts   Options
	log    *slog.Logger

	mu      sync.Mutex
	machine *fsm.FSM
	started bool
}

var _ Migrator = (*Engine)(nil)

// New returns an idle migration engine for source.
func New(source Source, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Dispatch == nil {
		opts.Dispatch = func(fn func()) { fn() }
	}
	e := &Engine{source: source, opts: opts, log: opts.Logger}
	e.machine = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventRead, Src: []string{StateIdle}, Dst: StateReading},
			{Name: eventWrite, Src: []string{StateReading}, Dst: StateWriting},
			{Name: eventVerify, Src: []string{StateWriting}, Dst: StateVerifying},
			{Name: eventSucceed, Src: []string{StateVerifying}, Dst: StateSucceeded},
			{Name: eventFail, Src: []string{StateReading, StateWriting, StateVerifying}, Dst: StateFailed},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, ev *fsm.Event) {
				logging.FromContext(ctx, e.log).Debug("migration state changed", "from", ev.Src, "to", ev.Dst)
			},
		},
	)
	return e
}

// State returns the current migration state.
func (e *Engine) State() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Current()
}

func (e *Engine) transition(ctx context.Context, event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.machine.Event(ctx, event); err != nil {
		logging.FromContext(ctx, e.log).Warn("migration transition refused", "event", event, logging.KeyError, err)
	}
}

// Start implements Migrator. The migration runs on its own goroutine and is
// not cancelled by ctx; ctx only carries values such as the operation ID.
// A second call reports an error without touching either store.
func (e *Engine) Start(ctx context.Context, dest Destination, completion func(Result)) *Progress {
	progress := newProgress()
	ctx = context.WithoutCancel(ctx)
	if name, _ := logging.OperationFromContext(ctx); name == "" {
		ctx = logging.WithOperation(ctx, "migrate")
	}

	e.mu.Lock()
	again := e.started
	e.started = true
	e.mu.Unlock()

	deliver := func(res Result) {
		e.opts.Dispatch(func() {
			if completion != nil {
				completion(res)
			}
		})
		progress.finish()
	}

	if again {
		go deliver(Result{Err: datum.NewError("migrate", datum.ErrRead, fmt.Errorf("migration already started"))})
		return progress
	}

	go func() {
		deliver(e.run(ctx, dest, progress))
	}()
	return progress
}

func (e *Engine) run(ctx context.Context, dest Destination, progress *Progress) Result {
	log := logging.FromContext(ctx, e.log)
	start := time.Now()
	defer logging.LogDuration(log, "migrate", start)

	fail := func(kind error, err error) Result {
		e.transition(ctx, eventFail)
		log.Error("migration failed", "state", e.State(), logging.KeyError, err)
		return Result{Duration: time.Since(start), Err: datum.Wrap("migrate", kind, err)}
	}

	e.transition(ctx, eventRead)
	graph, err := e.source.Export(ctx)
	if err != nil {
		return fail(datum.ErrRead, err)
	}
	var snapshot datum.Graph
	if err := deepcopy.Copy(&snapshot, graph); err != nil {
		return fail(datum.ErrRead, fmt.Errorf("copy snapshot: %w", err))
	}
	for _, id := range snapshot.FillMissingReminders() {
		log.Warn("legacy vessel has no reminders, adding a default one", logging.KeyVesselID, id.String())
	}
	want := snapshot.Counts()
	log.Info("legacy store read", "vessels", want.Vessels, "reminders", want.Reminders, "performs", want.Performs)

	e.transition(ctx, eventWrite)
	before, err := dest.Counts(ctx)
	if err != nil {
		return fail(datum.ErrWrite, err)
	}
	report := func(done, total int) {
		if total == 0 {
			return
		}
		f := float64(done) / float64(total)
		e.opts.Dispatch(func() { progress.set(f) })
	}
	if err := dest.Import(ctx, &snapshot, report); err != nil {
		return fail(datum.ErrWrite, err)
	}

	e.transition(ctx, eventVerify)
	after, err := dest.Counts(ctx)
	if err != nil {
		return fail(datum.ErrWrite, err)
	}
	got := datum.Counts{
		Vessels:   after.Vessels - before.Vessels,
		Reminders: after.Reminders - before.Reminders,
		Performs:  after.Performs - before.Performs,
	}
	if got != want {
		return fail(datum.ErrWrite, fmt.Errorf("verification failed: wrote %+v, expected %+v", got, want))
	}

	e.transition(ctx, eventSucceed)
	e.opts.Dispatch(func() { progress.set(1) })
	log.Info("migration succeeded", logging.KeyCount, want.Vessels)
	return Result{Counts: want, Duration: time.Since(start)}
}

// Noop is a Migrator that migrates nothing and succeeds at once.
type Noop struct{}

// Start implements Migrator.
func (Noop) Start(_ context.Context, _ Destination, completion func(Result)) *Progress {
	p := newProgress()
	p.set(1)
	if completion != nil {
		completion(Result{})
	}
	p.finish()
	return p
}
