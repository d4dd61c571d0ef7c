package datum

import (
	"context"

	"github.com/manav03panchal/waterme/internal/query"
)

// Engine names a storage engine implementation.
type Engine string

const (
	EngineDocument   Engine = "document"
	EngineRelational Engine = "relational"
)

// BasicController is the persistence façade both storage engines implement.
//
// Mutating methods are serialised by the controller and run
// validate → apply → commit (or roll back) before returning. Live queries are
// notified only after a commit. Every error is a *Error whose kind can be
// matched with errors.Is.
type BasicController interface {
	Engine() Engine
	// SupportsDisabling reports whether reminders can be disabled.
	SupportsDisabling() bool

	NewReminderVessel(displayName string, icon *Icon) (ReminderVessel, error)
	NewReminder(vessel ReminderVessel) (Reminder, error)
	UpdateVessel(vessel ReminderVessel, update VesselUpdate) error
	UpdateReminder(reminder Reminder, update ReminderUpdate) error
	AppendNewPerform(ids []Identifier) error
	DeleteVessel(vessel ReminderVessel) error
	DeleteReminder(reminder Reminder) error
	// Touch forces observers of the entity to see it as modified without
	// changing any field.
	Touch(id Identifier) error

	ReminderVessel(id Identifier) (ReminderVessel, error)
	Reminder(id Identifier) (Reminder, error)
	AllVessels(order VesselSortOrder, ascending bool) query.Query[ReminderVessel]
	AllReminders(order ReminderSortOrder, ascending bool) query.Query[Reminder]
	EnabledReminders(order ReminderSortOrder, ascending bool) query.Query[Reminder]
	Reminders(vessel ReminderVessel, order ReminderSortOrder, ascending bool) query.Query[Reminder]
	GroupedReminders(order ReminderSortOrder, ascending bool) *query.Grouped[Reminder]

	SetCallbacks(cb Callbacks)

	GraphStore
	Close() error
}

// GraphStore moves whole object graphs in and out of an engine.
type GraphStore interface {
	// Export reads every vessel, reminder and perform in one read-only
	// snapshot.
	Export(ctx context.Context) (*Graph, error)
	// Import writes graph in a single transaction. progress, when not nil,
	// is called after each vessel is staged.
	Import(ctx context.Context, graph *Graph, progress func(done, total int)) error
	Counts(ctx context.Context) (Counts, error)
}

// ReminderID returns the identity used by grouped reminder collections.
func ReminderID(r Reminder) string {
	return r.ID().String()
}

// VesselID returns the identity used by vessel collections.
func VesselID(v ReminderVessel) string {
	return v.ID().String()
}
