package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
)

// contextKey is a type for context keys used by this package.
type contextKey int

const (
	operationKey contextKey = iota
)

type operation struct {
	name string
	id   string
}

// NewOperationID creates a new unique operation ID.
// Format: 16 character hex string (8 random bytes).
func NewOperationID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}

// WithOperation returns a context carrying a named operation with a fresh ID.
func WithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationKey, operation{name: name, id: NewOperationID()})
}

// OperationFromContext returns the operation name and ID, or empty strings.
func OperationFromContext(ctx context.Context) (name, id string) {
	if ctx == nil {
		return "", ""
	}
	if op, ok := ctx.Value(operationKey).(operation); ok {
		return op.name, op.id
	}
	return "", ""
}

// FromContext returns base annotated with the operation carried by ctx.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = Discard()
	}
	if name, id := OperationFromContext(ctx); id != "" {
		return base.With(KeyOperation, name, KeyOperationID, id)
	}
	return base
}
