// Package shared holds the request context keys and the JSON request and
// response helpers used by the handlers and middleware.
package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/platform/logger"
)

// ContextKey is the type of context keys set by this package.
type ContextKey string

const (
	// UserIDContextKey is the context key for the authenticated owner's ID
	UserIDContextKey ContextKey = "userID"

	// TraceIDHeader is the request header a caller may use to supply a trace ID
	TraceIDHeader = "X-Request-ID"

	maxTraceIDLength = 64
)

// WithUserID returns a copy of ctx carrying the authenticated owner's ID.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// UserIDFromContext returns the authenticated owner's ID. The boolean is
// false when no usable ID is present.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// SetTraceID stores a trace ID in ctx. A usable incoming ID is kept;
// otherwise a new one is generated.
func SetTraceID(ctx context.Context, incoming string) context.Context {
	id := strings.TrimSpace(incoming)
	if id == "" || len(id) > maxTraceIDLength || strings.ContainsAny(id, " \t\r\n") {
		id = NewTraceID()
	}
	return logger.WithRequestID(ctx, id)
}

// GetTraceID retrieves the trace ID from the context, or "".
func GetTraceID(ctx context.Context) string {
	id, _ := logger.RequestIDFromContext(ctx)
	return id
}

// NewTraceID returns a random 32-character hex trace ID.
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
