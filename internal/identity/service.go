// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openshelf/openshelf/internal/platform/apperr"
	"github.com/openshelf/openshelf/internal/platform/sec"
)

// AccessTokenTTL bounds the lifetime of a bearer token for the API
// surface. Browsers use the session cookie instead.
const AccessTokenTTL = 15 * time.Minute

// ResetTokenLength is the entropy, in bytes, of a password-reset token.
const ResetTokenLength = 32

// TokenProvider defines the contract for minting API bearer tokens.
type TokenProvider interface {
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)
}

// AuthResult is the outcome of a successful sign-in or sign-up: the live
// session, the cookie token that identifies it, the reconciled profile,
// and a bearer token for API calls.
type AuthResult struct {
	Session      *Session
	SessionToken string
	Profile      *Profile
	AccessToken  string
}

// Service orchestrates the identity use cases: sign-in, sign-up,
// sign-out, password reset, and member administration.
//
// # Review Process
//
// This service is critical for security. Any changes to credential or
// reset-token handling must be reviewed by the security team.
type Service struct {
	store      SessionStore
	reconciler *Synchronizer
	accounts   AccountRepository
	profiles   ProfileRepository
	resets     ResetTokenRepository
	tokens     TokenProvider
	log        *slog.Logger
}

// NewService constructs an identity [Service].
func NewService(
	store SessionStore,
	reconciler *Synchronizer,
	accounts AccountRepository,
	profiles ProfileRepository,
	resets ResetTokenRepository,
	tokens TokenProvider,
	log *slog.Logger,
) *Service {
	return &Service{
		store:      store,
		reconciler: reconciler,
		accounts:   accounts,
		profiles:   profiles,
		resets:     resets,
		tokens:     tokens,
		log:        log.With(slog.String("component", "identity_service")),
	}
}

// # Sign-in & Sign-up

// SignInInput defines credentials for an authentication attempt.
type SignInInput struct {
	Email    string
	Password string
}

// SignUpInput holds the data required to enroll a new member.
type SignUpInput struct {
	Email    string
	Password string
	Username string
	FullName string
}

/*
SignIn authenticates a member and resolves their library profile.

Description: Opens a session against the store, then reconciles the
profile so the caller has the role in hand before routing. The role comes
from the profile row, never from the session.

Parameters:
  - ctx: context.Context
  - input: SignInInput

Returns:
  - *AuthResult: Session, cookie token, profile, and bearer token
  - error: Unauthorized or reconciliation failures
*/
func (service *Service) SignIn(ctx context.Context, input SignInInput) (*AuthResult, error) {
	session, token, err := service.store.SignInWithPassword(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	return service.complete(ctx, session, token)
}

/*
SignUp enrolls a new member and opens their first session.

Description: Creates the account, opens a session, and reconciles the
first-contact profile (role user, membership regular). The username and
full name travel as session metadata so the profile defaults can use them.

Parameters:
  - ctx: context.Context
  - input: SignUpInput

Returns:
  - *AuthResult: Session, cookie token, profile, and bearer token
  - error: Conflict (if the email exists) or storage failures
*/
func (service *Service) SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error) {
	metadata := map[string]string{}
	if input.Username != "" {
		metadata["username"] = input.Username
	}
	if input.FullName != "" {
		metadata["full_name"] = input.FullName
	}

	session, token, err := service.store.SignUp(ctx, input.Email, input.Password, metadata)
	if err != nil {
		return nil, err
	}

	return service.complete(ctx, session, token)
}

// complete reconciles the profile for a fresh session and mints the API
// bearer token.
func (service *Service) complete(ctx context.Context, session *Session, token string) (*AuthResult, error) {
	profile, err := service.reconciler.Reconcile(ctx, session)
	if err != nil {
		// A session without a resolvable profile must not survive: the
		// client would be signed in with no role.
		if signOutErr := service.store.SignOut(ctx, token); signOutErr != nil {
			service.log.Error("rollback sign-out failed", slog.String("error", signOutErr.Error()))
		}
		return nil, err
	}

	accessToken, err := service.tokens.GenerateAccessToken(profile.UserID, profile.Username, string(profile.Role), AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("identity_service_token_generation_failed: %w", err)
	}

	return &AuthResult{
		Session:      session,
		SessionToken: token,
		Profile:      profile,
		AccessToken:  accessToken,
	}, nil
}

// SignOut destroys the session behind a cookie token. Idempotent.
func (service *Service) SignOut(ctx context.Context, token string) error {
	return service.store.SignOut(ctx, token)
}

// ResolveRole reconciles the profile for an already-live session and
// returns its role. The route guard resolves the session; pages that need
// the role call this.
func (service *Service) ResolveRole(ctx context.Context, session *Session) (sec.Role, error) {
	profile, err := service.reconciler.Reconcile(ctx, session)
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}

// # Password Reset

/*
RequestPasswordReset starts the forgot-password flow for an email.

Description: Issues a single-use reset token bound to the account's
subject. An unknown email produces no token but also no error, so the
endpoint cannot be used for enumeration.

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - error: Token storage failures
*/
func (service *Service) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := service.accounts.FindByEmail(ctx, email)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return nil
		}
		return fmt.Errorf("identity_service_reset_lookup_failed: %w", err)
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return fmt.Errorf("identity_service_reset_token_failed: %w", err)
	}

	if err := service.resets.Set(ctx, token, account.SubjectID, ResetTokenTTL); err != nil {
		return err
	}

	// TODO: deliver the token by email once the notification service
	// lands; until then operators read it from the log in development.
	service.log.Info("password reset requested", slog.String("subject", account.SubjectID))
	return nil
}

// ResetPassword redeems a reset token and installs a new password. The
// token is deleted first so it can never be replayed.
func (service *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	subjectID, err := service.resets.Get(ctx, token)
	if err != nil {
		return err
	}

	if err := service.resets.Delete(ctx, token); err != nil {
		return err
	}

	passwordHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("identity_service_reset_hash_failed: %w", err)
	}

	if err := service.accounts.UpdatePassword(ctx, subjectID, passwordHash); err != nil {
		return fmt.Errorf("identity_service_reset_update_failed: %w", err)
	}

	return nil
}

// # Member Administration

// ListMembers returns a page of library profiles with the total count.
func (service *Service) ListMembers(ctx context.Context, limit, offset int) ([]Profile, int, error) {
	return service.profiles.List(ctx, limit, offset)
}

// SetMemberRole changes a member's role. The profile row is the source of
// truth, so the change takes effect on the member's next reconciliation.
func (service *Service) SetMemberRole(ctx context.Context, userID string, role sec.Role) error {
	if !role.Valid() {
		return apperr.ValidationError("Unknown role")
	}
	return service.profiles.UpdateRole(ctx, userID, role)
}
