package model

// Schema records the on-disk schema version of the legacy store.
type Schema struct {
	Key     string `json:"-"`
	Version int    `json:"version"`
}

// SetKey sets the database key.
func (s *Schema) SetKey(key string) {
	s.Key = key
}

// GetKey returns the database key.
func (s *Schema) GetKey() string {
	return s.Key
}
