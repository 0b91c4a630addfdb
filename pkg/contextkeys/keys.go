// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application are defined here so key usage
// stays discoverable and collision-free.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// SessionKey contains *auth.Session
	// Set by: auth.Middleware
	// Required by: entitlement middleware, subscription handlers
	SessionKey Key = "session"

	// RequestIDKey contains the request ID string
	// Set by: httputil request middleware
	// Used by: logging
	RequestIDKey Key = "request_id"
)

// WithSession stores a session value in the context.
func WithSession(ctx context.Context, session any) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}
