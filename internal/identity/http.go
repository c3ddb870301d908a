// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openshelf/openshelf/internal/platform/constants"
	requestutil "github.com/openshelf/openshelf/internal/platform/request"
	"github.com/openshelf/openshelf/internal/platform/respond"
	"github.com/openshelf/openshelf/internal/platform/sec"
	"github.com/openshelf/openshelf/internal/platform/validate"
	"github.com/openshelf/openshelf/pkg/pagination"
)

// JSON field names owned by this package.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldUsername = "username"
	FieldFullName = "full_name"
	FieldToken    = "token"
	FieldRole     = "role"
)

// Handler implements the identity HTTP endpoints.
//
// # Scope
//
// This handler owns the page-surface auth actions (sign-in, sign-up,
// sign-out, password reset, the post-auth redirector) and the admin
// member API. It is strictly a transport layer: status codes, cookies,
// JSON, redirects.
type Handler struct {
	service *Service

	// secureCookies toggles the Secure flag; off only in development
	// where the server speaks plain HTTP.
	secureCookies bool
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, secureCookies bool) *Handler {
	return &Handler{service: service, secureCookies: secureCookies}
}

// RegisterPageRoutes mounts the page-surface auth actions on the root
// router. These run behind the route guard.
func (handler *Handler) RegisterPageRoutes(router chi.Router) {
	router.Post(constants.RouteLogin, handler.signIn)
	router.Post(constants.RouteRegister, handler.signUp)
	router.Post("/logout", handler.signOut)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)
	router.Get(constants.RouteAuthRedirect, handler.authRedirect)
}

// MemberRoutes returns the admin member-management API router. The caller
// mounts it behind bearer-token auth with the admin role.
func (handler *Handler) MemberRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listMembers)
	router.Patch("/{userID}/role", handler.setMemberRole)
	return router
}

// # Request Payloads

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

/*
signIn authenticates a member and opens a browser session.

POST /login?redirectTo=/some/path

Description: Verifies credentials, sets the session cookie, and returns
the profile together with the path the client should navigate to next.
The redirectTo query parameter is honored only when it is a safe
site-relative path; an admin-area target is downgraded for non-admins.

Response:
  - 200: Profile, role, bearer token, and next path
  - 401: Invalid credentials
*/
func (handler *Handler) signIn(writer http.ResponseWriter, request *http.Request) {
	var input signInRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.SignIn(request.Context(), SignInInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, result.SessionToken)

	redirectTo := requestutil.Query(request, constants.QueryParamRedirect)
	respond.OK(writer, map[string]any{
		"user":         result.Profile,
		"access_token": result.AccessToken,
		"next":         ResolveTarget(redirectTo, result.Profile.Role),
	})
}

/*
signUp enrolls a new member and opens their first session.

POST /register

Description: Creates the account and its library profile (role user,
membership regular), sets the session cookie, and points the client at
the dashboard.

Response:
  - 201: Profile, role, bearer token, and next path
  - 409: Email already registered
*/
func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	var input signUpRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password)
	if input.Username != "" {
		validator.MinLen(FieldUsername, input.Username, 3)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.SignUp(request.Context(), SignUpInput{
		Email:    input.Email,
		Password: input.Password,
		Username: input.Username,
		FullName: input.FullName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, result.SessionToken)

	respond.Created(writer, map[string]any{
		"user":         result.Profile,
		"access_token": result.AccessToken,
		"next":         ResolveTarget("", result.Profile.Role),
	})
}

/*
signOut terminates the browser session.

POST /logout

Description: Destroys the session (idempotent) and clears the cookie.

Response:
  - 204: No Content
*/
func (handler *Handler) signOut(writer http.ResponseWriter, request *http.Request) {
	token := TokenFromRequest(request, constants.SessionCookieName)
	if token != "" {
		if err := handler.service.SignOut(request.Context(), token); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	handler.clearSessionCookie(writer)
	respond.NoContent(writer)
}

/*
authRedirect is the post-auth landing route.

GET /auth-redirector?redirectTo=/some/path

Description: Runs behind the route guard, so a session is present.
Resolves the role from the profile and issues a redirect: the validated
redirectTo target, or the role's default page. If the role cannot be
resolved the client goes back to the login page rather than landing
somewhere with unknown privileges.
*/
func (handler *Handler) authRedirect(writer http.ResponseWriter, request *http.Request) {
	redirectTo := requestutil.Query(request, constants.QueryParamRedirect)

	session := SessionFrom(request.Context())
	if session == nil {
		// Keep the target: after signing back in the client should still
		// land where it was headed.
		respond.Redirect(writer, request, loginTarget(redirectTo))
		return
	}

	role, err := handler.service.ResolveRole(request.Context(), session)
	if err != nil {
		respond.Redirect(writer, request, loginTarget(redirectTo))
		return
	}

	respond.Redirect(writer, request, ResolveTarget(redirectTo, role))
}

/*
forgotPassword starts the password-reset flow.

POST /forgot-password

Description: Always answers 204, whether or not the email exists, so the
endpoint cannot be used to probe for accounts.
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
resetPassword redeems a reset token.

POST /reset-password

Response:
  - 204: Password updated
  - 404: Token invalid or expired
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldToken, input.Token).
		Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ResetPassword(request.Context(), input.Token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Member Administration

/*
listMembers returns a page of library profiles.

GET /api/v1/admin/users?limit=&offset=

Response:
  - 200: Paginated list of profiles
*/
func (handler *Handler) listMembers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	members, total, err := handler.service.ListMembers(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, members, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
setMemberRole changes a member's role.

PATCH /api/v1/admin/users/{userID}/role

Response:
  - 204: Role updated
  - 404: Unknown member
*/
func (handler *Handler) setMemberRole(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "userID")

	var input setRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("userID", userID).
		UUID("userID", userID).
		Required(FieldRole, input.Role).
		OneOf(FieldRole, input.Role, "user", "admin")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.SetMemberRole(request.Context(), userID, sec.Role(input.Role)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Cookie Helpers

func (handler *Handler) setSessionCookie(writer http.ResponseWriter, token string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     constants.SessionCookiePath,
		Expires:  time.Now().Add(SessionTTL),
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (handler *Handler) clearSessionCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
