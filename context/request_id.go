// Package context carries per-invocation identifiers through a call chain
package context

import (
	stdctx "context"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey int

const (
	// RequestIDKey is the context key for invocation request IDs
	RequestIDKey contextKey = iota
	// ToolNameKey is the context key for the tool being invoked
	ToolNameKey
)

// NewRequestID generates a new unique request ID
func NewRequestID() string {
	return uuid.New().String()
}

// WithRequestID adds a request ID to the context
func WithRequestID(parent stdctx.Context, requestID string) stdctx.Context {
	return stdctx.WithValue(parent, RequestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from the context
func RequestIDFromContext(ctx stdctx.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithToolName records which tool an invocation targets
func WithToolName(parent stdctx.Context, name string) stdctx.Context {
	return stdctx.WithValue(parent, ToolNameKey, name)
}

// ToolNameFromContext returns the tool name recorded by WithToolName
func ToolNameFromContext(ctx stdctx.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(ToolNameKey).(string)
	return name
}
