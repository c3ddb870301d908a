// Copyright (c) 2026 OpenShelf. All rights reserved.

/*
Package identity implements authentication, sessions, and the profile/role
reconciliation core of OpenShelf.

# Architecture

The package is split along the same seams as the rest of the codebase:
entities and contracts (session.go, profile.go, account.go), storage
implementations (store_redis.go, account_postgres.go, profile_postgres.go),
the reconciliation core (sync.go, authctx.go), route authorization
(guard.go, redirect.go), orchestration (service.go), and HTTP delivery
(http.go).

# The reconciliation core

Every authenticated principal has two representations: the auth-level
Session (owned by the session store) and the library Profile row (owned by
the profile repository). The [Synchronizer] guarantees exactly one Profile
per session subject and derives the authorization role from it; the
[AuthContext] keeps an observable snapshot of the pair in sync with
session-change events.
*/
package identity

import (
	"context"
	"net/http"
	"time"

	"github.com/openshelf/openshelf/internal/platform/ctxkey"
)

const (
	// SessionTokenLength is the entropy, in bytes, of an opaque session
	// token before encoding.
	SessionTokenLength = 32

	// SessionTTL is how long an idle session survives in the store.
	SessionTTL = 30 * 24 * time.Hour

	// ResetTokenTTL is the lifetime of a password-reset token.
	ResetTokenTTL = 1 * time.Hour
)

// Session is the auth-level representation of a signed-in principal.
//
// It is owned by the session store and read-only to the reconciliation
// core: nothing in this package ever mutates a Session in place.
type Session struct {
	// SubjectID is the opaque unique identifier of the principal.
	SubjectID string `json:"subject_id"`

	// Email is the address the principal authenticated with.
	Email string `json:"email"`

	// Metadata carries sign-up attributes (username, full_name) the way
	// the auth layer received them.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// # Session-change Events

// EventType classifies a session-change notification.
type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedUp  EventType = "signed_up"
	EventRestored  EventType = "restored"
	EventSignedOut EventType = "signed_out"
)

// Event is a session-change notification published by the session store.
type Event struct {
	Type EventType

	// Token identifies which client session the event belongs to.
	Token string

	// Session is nil for [EventSignedOut].
	Session *Session
}

// # Session Store Contract

// SessionStore is the contract the reconciliation core consumes.
//
// # Error Semantics
//
// Current returns (nil, nil) when the token is absent, unknown, or expired
// — "no session" is a normal outcome, not an error. A non-nil error means
// the backend itself failed, which the route guard treats as "no session"
// for protected paths (fail closed).
type SessionStore interface {
	// Current returns the live session for an opaque cookie token.
	Current(ctx context.Context, token string) (*Session, error)

	// SignInWithPassword verifies credentials and opens a new session,
	// returning the session and its opaque token.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, string, error)

	// SignUp creates a new account and an initial session. Metadata keys
	// "username" and "full_name" seed the library profile on first
	// reconciliation.
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*Session, string, error)

	// SignOut destroys the session for the token. Idempotent: signing out
	// an already-dead token succeeds.
	SignOut(ctx context.Context, token string) error

	// Subscribe registers for session-change events. The returned function
	// cancels the subscription and closes the channel.
	Subscribe() (<-chan Event, func())
}

// # Request Context Helpers

// WithSession attaches a resolved session to the request context.
// The route guard does this once per navigation so page handlers never
// re-resolve the cookie.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, ctxkey.KeySession, session)
}

// SessionFrom returns the session attached by the route guard, or nil for
// anonymous requests.
func SessionFrom(ctx context.Context) *Session {
	session, ok := ctx.Value(ctxkey.KeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// TokenFromRequest extracts the opaque session token from the cookie, or
// "" when the cookie is absent.
func TokenFromRequest(request *http.Request, cookieName string) string {
	cookie, err := request.Cookie(cookieName)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}
