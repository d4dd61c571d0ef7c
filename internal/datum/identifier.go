package datum

// Identifier is a stable, engine-independent reference to a vessel or a
// reminder. Its raw value is either an engine-native key or, in the relational
// engine, the key a record carried before it was migrated.
type Identifier string

// NewIdentifier wraps a raw value, for example one read back from a command
// line argument or an exported file.
func NewIdentifier(raw string) Identifier {
	return Identifier(raw)
}

// String returns the raw value.
func (id Identifier) String() string {
	return string(id)
}

// IsZero reports whether the identifier is empty.
func (id Identifier) IsZero() bool {
	return id == ""
}

// Identifiers converts raw values into identifiers.
func Identifiers(raw ...string) []Identifier {
	ids := make([]Identifier, len(raw))
	for i, r := range raw {
		ids[i] = Identifier(r)
	}
	return ids
}
