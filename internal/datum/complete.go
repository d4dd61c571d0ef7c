package datum

// Incomplete names something a user probably forgot to fill in. Incomplete
// models can still be saved.
type Incomplete string

const (
	VesselMissingIcon               Incomplete = "vessel is missing a photo or emoji"
	VesselMissingName               Incomplete = "vessel is missing a name"
	VesselMissingReminders          Incomplete = "vessel has no reminders"
	ReminderMissingMoveLocation     Incomplete = "move reminder is missing a location"
	ReminderMissingOtherDescription Incomplete = "other reminder is missing a description"
)

// CheckVessel lists what is missing from v, or nil when v is complete.
func CheckVessel(v ReminderVessel) []Incomplete {
	var out []Incomplete
	if v.Icon().IsEmpty() {
		out = append(out, VesselMissingIcon)
	}
	if NonEmpty(v.DisplayName()) == "" {
		out = append(out, VesselMissingName)
	}
	if len(v.ReminderIDs()) == 0 {
		out = append(out, VesselMissingReminders)
	}
	return out
}

// CheckReminder lists what is missing from r, or nil when r is complete.
func CheckReminder(r Reminder) []Incomplete {
	k := r.Kind()
	switch {
	case k.Case == KindMove && k.Detail == "":
		return []Incomplete{ReminderMissingMoveLocation}
	case k.Case == KindOther && k.Detail == "":
		return []Incomplete{ReminderMissingOtherDescription}
	}
	return nil
}
