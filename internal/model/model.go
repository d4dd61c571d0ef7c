// Package model defines the documents stored by the legacy engine.
package model

import "fmt"

// Model is the interface that all database models must implement.
type Model interface {
	// SetKey sets the database key for this model.
	SetKey(key string)
	// GetKey returns the database key for this model.
	GetKey() string
}

// KeyPrefix constants for database key generation.
const (
	PrefixVessel   = "vessel"
	PrefixReminder = "reminder"
	KeySchema      = "meta:schema"
)

// GenerateKey builds "<prefix>:<uuid>".
func GenerateKey(prefix, uuid string) string {
	return fmt.Sprintf("%s:%s", prefix, uuid)
}

// UUIDFromKey strips the prefix from a key.
func UUIDFromKey(prefix, key string) string {
	p := prefix + ":"
	if len(key) > len(p) && key[:len(p)] == p {
		return key[len(p):]
	}
	return key
}
