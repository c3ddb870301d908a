// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/openshelf/openshelf/internal/platform/sec"
)

// AuthState is an observable snapshot of one client's authentication.
//
// Three shapes are possible: resolving (Loading true), anonymous (User
// nil), and authenticated (User set, Role derived from the profile).
type AuthState struct {
	User    *Session
	Role    sec.Role
	Loading bool
}

// Anonymous reports whether the snapshot represents a signed-out client.
func (state AuthState) Anonymous() bool {
	return !state.Loading && state.User == nil
}

// AuthContext tracks one client session and keeps an [AuthState] snapshot
// reconciled against the session store and the profile repository.
//
// # Consumers
//
// AuthContext is for stateful embedders that hold one session for a long
// time — desktop or CLI clients, kiosk terminals, long-lived integrations.
// The stateless HTTP server does not construct one: [Guard] restores the
// session per request and [Service] reconciles on sign-in/sign-up, which
// together cover the same duties for the request/response surface.
//
// # Ordering
//
// Profile reconciliation is asynchronous, so a slow reconciliation for an
// old session could otherwise land after a newer sign-in or sign-out and
// clobber it. Every state-changing trigger advances a generation counter;
// an in-flight reconciliation commits only if the generation it started
// under is still current. Sign-out advances the generation and publishes
// the anonymous state immediately, which makes it win against any
// concurrent reconciliation.
type AuthContext struct {
	store      SessionStore
	reconciler *Synchronizer
	log        *slog.Logger

	mu    sync.Mutex
	state AuthState
	token string
	gen   uint64

	observers  map[int]chan AuthState
	nextObsID  int
	cancelFeed func()
	done       chan struct{}
}

// NewAuthContext constructs an [AuthContext] in the resolving state.
func NewAuthContext(store SessionStore, synchronizer *Synchronizer, log *slog.Logger) *AuthContext {
	return &AuthContext{
		store:      store,
		reconciler: synchronizer,
		log:        log.With(slog.String("component", "auth_context")),
		state:      AuthState{Loading: true},
		observers:  map[int]chan AuthState{},
		done:       make(chan struct{}),
	}
}

// Start restores the session behind token (which may be empty) and begins
// consuming session-change events. It returns once the initial state is
// resolved.
func (auth *AuthContext) Start(ctx context.Context, token string) {
	events, cancel := auth.store.Subscribe()

	auth.mu.Lock()
	auth.token = token
	auth.cancelFeed = cancel
	auth.mu.Unlock()

	go auth.consume(events)

	auth.restore(ctx, token)
}

// restore resolves the initial state for a token.
func (auth *AuthContext) restore(ctx context.Context, token string) {
	auth.mu.Lock()
	auth.gen++
	gen := auth.gen
	auth.mu.Unlock()

	if token == "" {
		auth.commit(gen, "", AuthState{})
		return
	}

	session, err := auth.store.Current(ctx, token)
	if err != nil || session == nil {
		if err != nil {
			auth.log.Error("session restore failed", slog.String("error", err.Error()))
		}
		auth.commit(gen, "", AuthState{})
		return
	}

	auth.reconcile(ctx, gen, token, session)
}

// SignIn authenticates with a password and resolves the role before
// returning, so callers can route on it immediately.
func (auth *AuthContext) SignIn(ctx context.Context, email, password string) (AuthState, error) {
	session, token, err := auth.store.SignInWithPassword(ctx, email, password)
	if err != nil {
		return auth.Snapshot(), err
	}

	auth.mu.Lock()
	auth.gen++
	gen := auth.gen
	auth.token = token
	auth.state = AuthState{Loading: true}
	auth.mu.Unlock()

	return auth.reconcile(ctx, gen, token, session)
}

// SignUp registers a new account and resolves the role before returning.
func (auth *AuthContext) SignUp(ctx context.Context, email, password string, metadata map[string]string) (AuthState, error) {
	session, token, err := auth.store.SignUp(ctx, email, password, metadata)
	if err != nil {
		return auth.Snapshot(), err
	}

	auth.mu.Lock()
	auth.gen++
	gen := auth.gen
	auth.token = token
	auth.state = AuthState{Loading: true}
	auth.mu.Unlock()

	return auth.reconcile(ctx, gen, token, session)
}

// SignOut forces the anonymous state immediately, then destroys the
// session in the store. The local state flips even if the store call
// fails, so a broken backend cannot keep a client signed in.
func (auth *AuthContext) SignOut(ctx context.Context) error {
	auth.mu.Lock()
	auth.gen++
	token := auth.token
	auth.token = ""
	auth.state = AuthState{}
	auth.mu.Unlock()

	auth.notify(AuthState{})

	if token == "" {
		return nil
	}
	return auth.store.SignOut(ctx, token)
}

// Snapshot returns the current state.
func (auth *AuthContext) Snapshot() AuthState {
	auth.mu.Lock()
	defer auth.mu.Unlock()
	return auth.state
}

// Subscribe registers an observer for state changes. The returned function
// cancels the subscription and closes the channel.
func (auth *AuthContext) Subscribe() (<-chan AuthState, func()) {
	auth.mu.Lock()
	defer auth.mu.Unlock()

	id := auth.nextObsID
	auth.nextObsID++

	channel := make(chan AuthState, eventBuffer)
	auth.observers[id] = channel

	cancel := func() {
		auth.mu.Lock()
		defer auth.mu.Unlock()
		if existing, ok := auth.observers[id]; ok {
			delete(auth.observers, id)
			close(existing)
		}
	}

	return channel, cancel
}

// Close stops the event feed and releases observers.
func (auth *AuthContext) Close() {
	auth.mu.Lock()
	cancel := auth.cancelFeed
	auth.cancelFeed = nil
	observers := auth.observers
	auth.observers = map[int]chan AuthState{}
	auth.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	close(auth.done)

	for _, channel := range observers {
		close(channel)
	}
}

// consume applies session-change events until the feed closes.
func (auth *AuthContext) consume(events <-chan Event) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			auth.apply(event)
		case <-auth.done:
			return
		}
	}
}

// apply handles one session-change event.
func (auth *AuthContext) apply(event Event) {
	auth.mu.Lock()

	// Events for other clients' tokens are not ours to act on.
	if event.Token != auth.token {
		auth.mu.Unlock()
		return
	}

	auth.gen++
	gen := auth.gen

	if event.Type == EventSignedOut || event.Session == nil {
		auth.token = ""
		auth.state = AuthState{}
		auth.mu.Unlock()
		auth.notify(AuthState{})
		return
	}

	token := auth.token
	session := event.Session
	auth.state = AuthState{Loading: true}
	auth.mu.Unlock()

	go func() {
		// Session events carry no deadline of their own.
		auth.reconcile(context.Background(), gen, token, session)
	}()
}

// reconcile resolves the profile for a session and commits the resulting
// state under the given generation.
func (auth *AuthContext) reconcile(ctx context.Context, gen uint64, token string, session *Session) (AuthState, error) {
	profile, err := auth.reconciler.Reconcile(ctx, session)
	if err != nil {
		auth.log.Error("profile reconciliation failed",
			slog.String("subject", session.SubjectID),
			slog.String("error", err.Error()),
		)
		auth.commit(gen, "", AuthState{})
		return AuthState{}, err
	}

	state := AuthState{User: session, Role: profile.Role}
	if !auth.commit(gen, token, state) {
		// A newer trigger superseded this reconciliation; its state, not
		// ours, is the truth now.
		return auth.Snapshot(), nil
	}
	return state, nil
}

// commit installs a state if gen is still current. Reports whether the
// state was installed.
func (auth *AuthContext) commit(gen uint64, token string, state AuthState) bool {
	auth.mu.Lock()
	if auth.gen != gen {
		auth.mu.Unlock()
		return false
	}
	auth.token = token
	auth.state = state
	auth.mu.Unlock()

	auth.notify(state)
	return true
}

// notify pushes a state to every observer without blocking.
func (auth *AuthContext) notify(state AuthState) {
	auth.mu.Lock()
	defer auth.mu.Unlock()

	for _, channel := range auth.observers {
		select {
		case channel <- state:
		default:
		}
	}
}
