package datum

import (
	"errors"
	"fmt"
)

// Error kinds returned by every BasicController. Callers match them with
// errors.Is; the concrete error is always a *Error.
var (
	ErrLoad                           = errors.New("unable to load store")
	ErrCreate                         = errors.New("unable to create controller")
	ErrWrite                          = errors.New("unable to write changes")
	ErrRead                           = errors.New("unable to read data")
	ErrObjectDeleted                  = errors.New("object no longer exists")
	ErrUnableToDeleteLastReminder     = errors.New("a plant must have at least one reminder")
	ErrImageCouldntBeCompressedEnough = errors.New("image could not be compressed enough")
	ErrIsEnabledFalseUnsupported      = errors.New("disabling reminders is not supported by this store")
	ErrAmbiguousIdentifier            = errors.New("identifier matches more than one object")
	ErrMaintenance                    = errors.New("store maintenance failed")
)

// kinds lists every error kind in declaration order.
var kinds = []error{
	ErrLoad,
	ErrCreate,
	ErrWrite,
	ErrRead,
	ErrObjectDeleted,
	ErrUnableToDeleteLastReminder,
	ErrImageCouldntBeCompressedEnough,
	ErrIsEnabledFalseUnsupported,
	ErrAmbiguousIdentifier,
	ErrMaintenance,
}

// Error carries the kind of a failure together with the operation that
// produced it and the underlying engine error, if any.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds an *Error. A nil cause is allowed.
func NewError(op string, kind, cause error) *Error {
	return &Error{Op: op, Kind: kind, Err: cause}
}

// Wrap classifies err under kind unless it already carries a datum kind, in
// which case it is returned with its original classification.
func Wrap(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != nil {
		return err
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the datum error kind carried by err, or nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
