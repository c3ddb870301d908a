// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/openshelf/internal/platform/apperr"
	"github.com/openshelf/openshelf/internal/platform/constants"
	"github.com/openshelf/openshelf/internal/platform/dberr"
	"github.com/openshelf/openshelf/internal/platform/sec"
	"github.com/openshelf/openshelf/pkg/uuidv7"
)

// eventBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind starts losing events rather than blocking sign-ins.
const eventBuffer = 16

// RedisSessionStore implements [SessionStore] with credentials in PostgreSQL
// (via [AccountRepository]) and live sessions in Redis.
//
// # Token handling
//
// Only the SHA-256 digest of a session token is ever used as a Redis key,
// so a dump of the store never reveals usable tokens.
type RedisSessionStore struct {
	client   *redis.Client
	accounts AccountRepository

	mu          sync.Mutex
	subscribers map[int]chan Event
	nextSubID   int
}

// NewSessionStore constructs a [RedisSessionStore].
func NewSessionStore(client *redis.Client, accounts AccountRepository) *RedisSessionStore {
	return &RedisSessionStore{
		client:      client,
		accounts:    accounts,
		subscribers: map[int]chan Event{},
	}
}

// sessionKey builds the Redis key for a session token.
func sessionKey(token string) string {
	return constants.RedisPrefixSession + sec.HashToken(token)
}

// Current returns the live session for an opaque cookie token.
//
// (nil, nil) means "no session": empty, unknown, or expired token. A
// non-nil error means Redis itself failed.
func (store *RedisSessionStore) Current(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}

	payload, err := store.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session_store_current_failed: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal([]byte(payload), session); err != nil {
		return nil, fmt.Errorf("session_store_decode_failed: %w", err)
	}

	return session, nil
}

// SignInWithPassword verifies credentials and opens a new session.
func (store *RedisSessionStore) SignInWithPassword(ctx context.Context, email, password string) (*Session, string, error) {
	account, err := store.accounts.FindByEmail(ctx, email)

	// Return a generic unauthorized error to prevent email enumeration.
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, "", apperr.Unauthorized("Invalid login credentials")
		}
		return nil, "", fmt.Errorf("session_store_sign_in_lookup_failed: %w", err)
	}

	if !sec.CheckPasswordHash(password, account.PasswordHash) {
		return nil, "", apperr.Unauthorized("Invalid login credentials")
	}

	session := &Session{
		SubjectID: account.SubjectID,
		Email:     account.Email,
		Metadata:  account.Metadata(),
	}

	token, err := store.open(ctx, session)
	if err != nil {
		return nil, "", err
	}

	store.publish(Event{Type: EventSignedIn, Token: token, Session: session})
	return session, token, nil
}

// SignUp creates a new account and an initial session.
func (store *RedisSessionStore) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*Session, string, error) {
	passwordHash, err := sec.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("session_store_sign_up_hash_failed: %w", err)
	}

	account := &Account{
		SubjectID:    uuidv7.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Username:     metadata["username"],
		FullName:     metadata["full_name"],
	}

	// The account table's UNIQUE(email) is the authority on duplicate
	// sign-ups; Create surfaces it as a client-safe Conflict.
	if err := store.accounts.Create(ctx, account); err != nil {
		return nil, "", err
	}

	session := &Session{
		SubjectID: account.SubjectID,
		Email:     account.Email,
		Metadata:  account.Metadata(),
	}

	token, err := store.open(ctx, session)
	if err != nil {
		return nil, "", err
	}

	store.publish(Event{Type: EventSignedUp, Token: token, Session: session})
	return session, token, nil
}

// SignOut destroys the session for the token. Idempotent.
func (store *RedisSessionStore) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := store.Current(ctx, token)
	if err != nil {
		return err
	}

	if err := store.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("session_store_sign_out_failed: %w", err)
	}

	// Publish the sign-out even when the session had already expired so
	// observers converge on "anonymous" either way.
	store.publish(Event{Type: EventSignedOut, Token: token, Session: session})
	return nil
}

// Subscribe registers for session-change events.
func (store *RedisSessionStore) Subscribe() (<-chan Event, func()) {
	store.mu.Lock()
	defer store.mu.Unlock()

	id := store.nextSubID
	store.nextSubID++

	channel := make(chan Event, eventBuffer)
	store.subscribers[id] = channel

	cancel := func() {
		store.mu.Lock()
		defer store.mu.Unlock()
		if existing, ok := store.subscribers[id]; ok {
			delete(store.subscribers, id)
			close(existing)
		}
	}

	return channel, cancel
}

// open persists a fresh session in Redis and returns its opaque token.
func (store *RedisSessionStore) open(ctx context.Context, session *Session) (string, error) {
	token, err := sec.GenerateSecureToken(SessionTokenLength)
	if err != nil {
		return "", fmt.Errorf("session_store_token_failed: %w", err)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("session_store_encode_failed: %w", err)
	}

	if err := store.client.Set(ctx, sessionKey(token), payload, SessionTTL).Err(); err != nil {
		return "", fmt.Errorf("session_store_open_failed: %w", err)
	}

	return token, nil
}

// publish delivers an event to every subscriber without blocking.
func (store *RedisSessionStore) publish(event Event) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, channel := range store.subscribers {
		select {
		case channel <- event:
		default:
			// Subscriber is saturated; dropping beats stalling sign-ins.
		}
	}
}
