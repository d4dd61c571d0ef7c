package runtime

import (
	"context"
	"errors"
	"strings"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/validate"
)

// ResolveVessel finds a vessel by identifier, falling back to a
// case-insensitive display name match. A name shared by several vessels is
// ambiguous.
func (c *Context) ResolveVessel(ctx context.Context, raw string) (datum.ReminderVessel, error) {
	ctrl, err := c.Controller(ctx)
	if err != nil {
		return nil, err
	}

	id, idErr := validate.Identifier(raw)
	if idErr == nil {
		v, err := ctrl.ReminderVessel(id)
		if err == nil || !errors.Is(err, datum.ErrObjectDeleted) {
			return v, err
		}
	}

	vessels, err := ctrl.AllVessels(datum.SortByDisplayName, true).Fetch()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(raw)
	var matches []datum.ReminderVessel
	for _, v := range vessels.All() {
		if strings.EqualFold(v.DisplayName(), name) {
			matches = append(matches, v)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		if idErr != nil {
			return nil, idErr
		}
		return nil, datum.NewError("resolve vessel "+name, datum.ErrObjectDeleted, nil)
	default:
		return nil, datum.NewError("resolve vessel "+name, datum.ErrAmbiguousIdentifier, nil)
	}
}

// ResolveReminder finds a reminder by identifier or by "<plant>:<kind>",
// for example "fern:water".
func (c *Context) ResolveReminder(ctx context.Context, raw string) (datum.Reminder, error) {
	ctrl, err := c.Controller(ctx)
	if err != nil {
		return nil, err
	}

	id, idErr := validate.Identifier(raw)
	if idErr == nil {
		r, err := ctrl.Reminder(id)
		if err == nil || !errors.Is(err, datum.ErrObjectDeleted) {
			return r, err
		}
	}

	i := strings.LastIndex(raw, ":")
	if i <= 0 || strings.Contains(raw, "://") {
		if idErr != nil {
			return nil, idErr
		}
		return nil, datum.NewError("resolve reminder "+raw, datum.ErrObjectDeleted, nil)
	}

	v, err := c.ResolveVessel(ctx, raw[:i])
	if err != nil {
		return nil, err
	}
	kind, err := datum.ParseKindCase(strings.ToLower(strings.TrimSpace(raw[i+1:])))
	if err != nil {
		return nil, validateKindError(raw[i+1:])
	}

	reminders, err := ctrl.Reminders(v, datum.SortByNextPerformDate, true).Fetch()
	if err != nil {
		return nil, err
	}
	var matches []datum.Reminder
	for _, r := range reminders.All() {
		if r.Kind().Case == kind {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, datum.NewError("resolve reminder "+raw, datum.ErrObjectDeleted, nil)
	default:
		return nil, datum.NewError("resolve reminder "+raw, datum.ErrAmbiguousIdentifier, nil)
	}
}

func validateKindError(name string) error {
	_, err := validate.ReminderKind(name, "")
	return err
}

// VesselNames maps vessel ids to display labels for reminder listings.
func (c *Context) VesselNames(ctx context.Context) (map[datum.Identifier]string, error) {
	ctrl, err := c.Controller(ctx)
	if err != nil {
		return nil, err
	}
	vessels, err := ctrl.AllVessels(datum.SortByDisplayName, true).Fetch()
	if err != nil {
		return nil, err
	}
	names := make(map[datum.Identifier]string, vessels.Len())
	for _, v := range vessels.All() {
		name := datum.ShortLabel(v.DisplayName())
		if name == "" {
			name = "(unnamed)"
		}
		if icon := v.Icon(); icon != nil && icon.Emoji != "" {
			name = icon.Emoji + " " + name
		}
		names[v.ID()] = name
	}
	return names, nil
}
