// Package auth consumes the output of the external authentication provider.
//
// Authentication itself (login, token issuance, session management) lives
// outside this repository; this package only answers "is the caller
// authenticated, and as whom" by delegating to a Verifier, and makes the
// answer available to handlers through the request context.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/lexportal/lexportal/pkg/contextkeys"
	"github.com/lexportal/lexportal/pkg/observability"
)

// Session is the authenticated caller's identity as reported by the
// external session provider.
type Session struct {
	UserID string
	Token  string
}

// Verifier validates a bearer token with the external session provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Session, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, token string) (*Session, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (*Session, error) {
	return f(ctx, token)
}

// FromContext extracts the session from a request context, nil when the
// caller is not authenticated.
func FromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(contextkeys.SessionKey).(*Session)
	return session
}

// Middleware resolves the Authorization header into a Session. It never
// rejects by itself: routes that require authentication enforce it through
// the entitlement guard, so public routes can share the same chain.
type Middleware struct {
	verifier Verifier
}

// NewMiddleware creates session-resolving middleware.
func NewMiddleware(verifier Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// Handler wraps next with session resolution.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || m.verifier == nil {
			next.ServeHTTP(w, r)
			return
		}

		session, err := m.verifier.Verify(r.Context(), token)
		if err != nil || session == nil {
			// Invalid token: treat as unauthenticated, the guard denies later.
			next.ServeHTTP(w, r)
			return
		}

		ctx := contextkeys.WithSession(r.Context(), session)
		ctx = observability.WithUserID(ctx, session.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
