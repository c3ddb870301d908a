// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/identity"
	"github.com/openshelf/openshelf/internal/platform/sec"
)

// fakeSessionStore is an in-memory SessionStore with a hand-fed event
// channel.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*identity.Session
	events   chan identity.Event

	currentErr   error
	signInErr    error
	signOutCalls int

	// signInSession/signInToken are returned by SignInWithPassword and
	// SignUp regardless of credentials.
	signInSession *identity.Session
	signInToken   string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: map[string]*identity.Session{},
		events:   make(chan identity.Event, 16),
	}
}

func (f *fakeSessionStore) Current(ctx context.Context, token string) (*identity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.sessions[token], nil
}

func (f *fakeSessionStore) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return nil, "", f.signInErr
	}
	f.sessions[f.signInToken] = f.signInSession
	return f.signInSession, f.signInToken, nil
}

func (f *fakeSessionStore) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*identity.Session, string, error) {
	return f.SignInWithPassword(ctx, email, password)
}

func (f *fakeSessionStore) SignOut(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionStore) Subscribe() (<-chan identity.Event, func()) {
	return f.events, func() {}
}

func newAuthContext(store identity.SessionStore, profiles *fakeProfiles) *identity.AuthContext {
	return identity.NewAuthContext(store, newSynchronizer(profiles), testLogger())
}

/*
TestAuthContext_StartAnonymous verifies that starting without a token
resolves straight to the anonymous state.
*/
func TestAuthContext_StartAnonymous(t *testing.T) {
	auth := newAuthContext(newFakeSessionStore(), newFakeProfiles())
	defer auth.Close()

	auth.Start(context.Background(), "")

	state := auth.Snapshot()
	assert.True(t, state.Anonymous())
	assert.False(t, state.Loading)
}

/*
TestAuthContext_StartRestoresSession verifies that a stored session is
restored and its role resolved before Start returns.
*/
func TestAuthContext_StartRestoresSession(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["tok-1"] = &identity.Session{SubjectID: "subject-1", Email: "ada@example.com"}

	profiles := newFakeProfiles()
	profiles.put(&identity.Profile{UserID: "subject-1", Email: "ada@example.com", Role: sec.RoleAdmin})

	auth := newAuthContext(store, profiles)
	defer auth.Close()

	auth.Start(context.Background(), "tok-1")

	state := auth.Snapshot()
	require.NotNil(t, state.User)
	assert.Equal(t, "subject-1", state.User.SubjectID)
	assert.Equal(t, sec.RoleAdmin, state.Role)
	assert.False(t, state.Loading)
}

/*
TestAuthContext_StartFailsClosed verifies that a broken session backend
resolves to anonymous rather than leaving the client in limbo.
*/
func TestAuthContext_StartFailsClosed(t *testing.T) {
	store := newFakeSessionStore()
	store.currentErr = errors.New("connection refused")

	auth := newAuthContext(store, newFakeProfiles())
	defer auth.Close()

	auth.Start(context.Background(), "tok-1")

	assert.True(t, auth.Snapshot().Anonymous())
}

/*
TestAuthContext_SignInResolvesRole verifies that SignIn returns only
after the role is derived from the profile, so callers can route on it.
*/
func TestAuthContext_SignInResolvesRole(t *testing.T) {
	store := newFakeSessionStore()
	store.signInSession = &identity.Session{SubjectID: "subject-1", Email: "root@example.com"}
	store.signInToken = "tok-1"

	profiles := newFakeProfiles()
	profiles.put(&identity.Profile{UserID: "subject-1", Email: "root@example.com", Role: sec.RoleAdmin})

	auth := newAuthContext(store, profiles)
	defer auth.Close()
	auth.Start(context.Background(), "")

	state, err := auth.SignIn(context.Background(), "root@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, sec.RoleAdmin, state.Role)
	assert.Equal(t, state, auth.Snapshot())
}

/*
TestAuthContext_SignInRejected verifies that failed credentials leave the
state anonymous.
*/
func TestAuthContext_SignInRejected(t *testing.T) {
	store := newFakeSessionStore()
	store.signInErr = errors.New("invalid login credentials")

	auth := newAuthContext(store, newFakeProfiles())
	defer auth.Close()
	auth.Start(context.Background(), "")

	_, err := auth.SignIn(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, auth.Snapshot().Anonymous())
}

/*
TestAuthContext_SignOut verifies that signing out flips to anonymous and
destroys the session in the store.
*/
func TestAuthContext_SignOut(t *testing.T) {
	store := newFakeSessionStore()
	store.signInSession = &identity.Session{SubjectID: "subject-1", Email: "ada@example.com"}
	store.signInToken = "tok-1"

	auth := newAuthContext(store, newFakeProfiles())
	defer auth.Close()
	auth.Start(context.Background(), "")

	_, err := auth.SignIn(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, auth.SignOut(context.Background()))

	assert.True(t, auth.Snapshot().Anonymous())
	assert.Equal(t, 1, store.signOutCalls)
}

/*
TestAuthContext_IgnoresForeignEvents verifies that session events for a
different client token never touch this context's state.
*/
func TestAuthContext_IgnoresForeignEvents(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["tok-1"] = &identity.Session{SubjectID: "subject-1", Email: "ada@example.com"}

	profiles := newFakeProfiles()
	auth := newAuthContext(store, profiles)
	defer auth.Close()
	auth.Start(context.Background(), "tok-1")

	before := auth.Snapshot()

	store.events <- identity.Event{
		Type:    identity.EventSignedOut,
		Token:   "someone-elses-token",
		Session: nil,
	}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, auth.Snapshot())
}

/*
TestAuthContext_SignedOutEvent verifies that a signed-out event for our
own token flips the state to anonymous.
*/
func TestAuthContext_SignedOutEvent(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["tok-1"] = &identity.Session{SubjectID: "subject-1", Email: "ada@example.com"}

	auth := newAuthContext(store, newFakeProfiles())
	defer auth.Close()
	auth.Start(context.Background(), "tok-1")

	require.NotNil(t, auth.Snapshot().User)

	store.events <- identity.Event{Type: identity.EventSignedOut, Token: "tok-1"}

	require.Eventually(t, func() bool {
		return auth.Snapshot().Anonymous()
	}, time.Second, 10*time.Millisecond)
}

/*
TestAuthContext_StaleReconcileDiscarded verifies the ordering guarantee:
a sign-out wins over a reconciliation that is still in flight, and the
late result never resurrects the signed-in state.
*/
func TestAuthContext_StaleReconcileDiscarded(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["tok-1"] = &identity.Session{SubjectID: "subject-1", Email: "ada@example.com"}

	profiles := newFakeProfiles()
	auth := newAuthContext(store, profiles)
	defer auth.Close()
	auth.Start(context.Background(), "tok-1")

	// ── 1. Stall the profile lookup and trigger an async reconciliation ──

	release := make(chan struct{})
	profiles.blockFind = release
	store.events <- identity.Event{
		Type:    identity.EventSignedIn,
		Token:   "tok-1",
		Session: &identity.Session{SubjectID: "subject-1", Email: "ada@example.com"},
	}

	require.Eventually(t, func() bool {
		return auth.Snapshot().Loading
	}, time.Second, 10*time.Millisecond)

	// ── 2. Sign out while the reconciliation is blocked ──

	require.NoError(t, auth.SignOut(context.Background()))
	assert.True(t, auth.Snapshot().Anonymous())

	// ── 3. Let the stale reconciliation finish; it must be discarded ──

	close(release)
	time.Sleep(50 * time.Millisecond)
	assert.True(t, auth.Snapshot().Anonymous())
}

/*
TestAuthContext_Subscribe verifies that observers receive state changes
and that cancelling closes the channel.
*/
func TestAuthContext_Subscribe(t *testing.T) {
	store := newFakeSessionStore()
	store.signInSession = &identity.Session{SubjectID: "subject-1", Email: "ada@example.com"}
	store.signInToken = "tok-1"

	auth := newAuthContext(store, newFakeProfiles())
	defer auth.Close()
	auth.Start(context.Background(), "")

	states, cancel := auth.Subscribe()

	_, err := auth.SignIn(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	select {
	case state := <-states:
		require.NotNil(t, state.User)
		assert.Equal(t, "subject-1", state.User.SubjectID)
	case <-time.After(time.Second):
		t.Fatal("no state change observed")
	}

	cancel()
	_, open := <-states
	assert.False(t, open)
}
