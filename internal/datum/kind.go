package datum

import "fmt"

// KindCase is the stored discriminator of a ReminderKind. The raw strings are
// what the engines persist and sort on.
type KindCase string

const (
	KindWater     KindCase = "water"
	KindFertilize KindCase = "fertilize"
	KindTrim      KindCase = "trim"
	KindMist      KindCase = "mist"
	KindMove      KindCase = "move"
	KindOther     KindCase = "other"
)

// KindCases lists every case in display order.
var KindCases = []KindCase{KindWater, KindFertilize, KindTrim, KindMist, KindMove, KindOther}

// ParseKindCase converts a stored or user supplied string into a KindCase.
func ParseKindCase(s string) (KindCase, error) {
	for _, c := range KindCases {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown reminder kind %q", s)
}

// ReminderKind is the tagged union water | fertilize | trim | mist |
// move(location) | other(description). Detail holds the location or the
// description and is always empty for the other cases.
type ReminderKind struct {
	Case   KindCase
	Detail string
}

// Water returns the default reminder kind.
func Water() ReminderKind { return ReminderKind{Case: KindWater} }

// Fertilize returns the fertilize kind.
func Fertilize() ReminderKind { return ReminderKind{Case: KindFertilize} }

// Trim returns the trim kind.
func Trim() ReminderKind { return ReminderKind{Case: KindTrim} }

// Mist returns the mist kind.
func Mist() ReminderKind { return ReminderKind{Case: KindMist} }

// Move returns a move kind with an optional location.
func Move(location string) ReminderKind {
	return ReminderKind{Case: KindMove, Detail: NonEmpty(location)}
}

// Other returns an other kind with an optional description.
func Other(description string) ReminderKind {
	return ReminderKind{Case: KindOther, Detail: NonEmpty(description)}
}

// NewReminderKind rebuilds a kind from its stored parts. Detail is dropped for
// cases that do not carry one.
func NewReminderKind(c KindCase, detail string) ReminderKind {
	switch c {
	case KindMove:
		return Move(detail)
	case KindOther:
		return Other(detail)
	case "":
		return Water()
	default:
		return ReminderKind{Case: c}
	}
}

// HasDetail reports whether the case carries a location or description.
func (k ReminderKind) HasDetail() bool {
	return k.Case == KindMove || k.Case == KindOther
}

// Normalized returns k with an empty case mapped to water and detail trimmed.
func (k ReminderKind) Normalized() ReminderKind {
	return NewReminderKind(k.Case, k.Detail)
}

func (k ReminderKind) String() string {
	if k.HasDetail() && k.Detail != "" {
		return fmt.Sprintf("%s(%s)", k.Case, k.Detail)
	}
	return string(k.Case)
}

// VesselKind enumerates what a vessel is. Only plants exist today.
type VesselKind string

const VesselKindPlant VesselKind = "plant"

// ParseVesselKind maps a stored value to a VesselKind, defaulting to plant.
func ParseVesselKind(s string) VesselKind {
	if s == "" {
		return VesselKindPlant
	}
	return VesselKind(s)
}
