// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/openshelf/openshelf/internal/platform/constants"
	"github.com/openshelf/openshelf/internal/platform/respond"
)

// routeClass is the access class of a page path.
type routeClass int

const (
	classPublic routeClass = iota

	// classProtected paths require a live session.
	classProtected

	// classAuthOnly paths (login, register) are for anonymous clients;
	// a signed-in client is forwarded to the post-auth redirector.
	classAuthOnly
)

// Page prefix sets. Classification uses the longest matching prefix, so
// /books stays public while /books/borrow is protected.
var (
	protectedPrefixes = []string{
		constants.RouteDashboard,
		constants.RouteAdmin,
		constants.RouteBooks + "/borrow",
		constants.RouteAuthRedirect,
	}

	authOnlyPrefixes = []string{
		constants.RouteLogin,
		constants.RouteRegister,
	}

	// Non-page surfaces with their own auth (or none) that the guard
	// never touches.
	skipPrefixes = []string{
		"/api",
		"/health",
		"/ready",
		"/metrics",
	}
)

// Guard is the route authorization middleware for the page surface.
//
// It resolves the session cookie once per navigation, classifies the path,
// and either forwards the request (with the session attached to the
// context) or redirects:
//
//   - protected path, no session: redirect to the login page, carrying the
//     original path in the redirectTo query parameter so the client
//     returns there after signing in.
//   - auth-only path, live session: redirect to the post-auth redirector.
//
// A session-store failure counts as "no session". For protected paths
// that means denial, never accidental access.
type Guard struct {
	store SessionStore
	log   *slog.Logger
}

// NewGuard constructs a [Guard].
func NewGuard(store SessionStore, log *slog.Logger) *Guard {
	return &Guard{
		store: store,
		log:   log.With(slog.String("component", "route_guard")),
	}
}

// Middleware returns the guard as a chi-compatible middleware.
func (guard *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		path := request.URL.Path

		for _, prefix := range skipPrefixes {
			if matchesPrefix(path, prefix) {
				next.ServeHTTP(writer, request)
				return
			}
		}

		token := TokenFromRequest(request, constants.SessionCookieName)

		session, err := guard.store.Current(request.Context(), token)
		if err != nil {
			// Fail closed: an unreachable session store denies protected
			// paths instead of letting requests through unauthenticated.
			guard.log.Error("session resolution failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			session = nil
		}

		switch classify(path) {
		case classProtected:
			if session == nil {
				respond.Redirect(writer, request, loginRedirect(path))
				return
			}

		case classAuthOnly:
			if session != nil {
				respond.Redirect(writer, request, redirectorTarget(request))
				return
			}
		}

		if session != nil {
			request = request.WithContext(WithSession(request.Context(), session))
		}
		next.ServeHTTP(writer, request)
	})
}

// classify returns the access class of a page path. The longest matching
// prefix wins.
func classify(path string) routeClass {
	class, best := classPublic, 0

	for _, prefix := range protectedPrefixes {
		if matchesPrefix(path, prefix) && len(prefix) > best {
			class, best = classProtected, len(prefix)
		}
	}
	for _, prefix := range authOnlyPrefixes {
		if matchesPrefix(path, prefix) && len(prefix) > best {
			class, best = classAuthOnly, len(prefix)
		}
	}

	return class
}

// matchesPrefix reports whether path equals prefix or sits beneath it.
func matchesPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// redirectorTarget builds the post-auth redirector URL for a signed-in
// client landing on an auth-only page. A caller-supplied redirect target
// rides along, so /login?redirectTo=/books/42 still ends up on the book
// page instead of the role default.
func redirectorTarget(request *http.Request) string {
	target := request.URL.Query().Get(constants.QueryParamRedirect)
	if !ValidRedirectTarget(target) {
		return constants.RouteAuthRedirect
	}

	query := url.Values{}
	query.Set(constants.QueryParamRedirect, target)
	return constants.RouteAuthRedirect + "?" + query.Encode()
}

// loginRedirect builds the login URL for a denied path. The redirector's
// own path is never propagated: landing back on it after sign-in would
// only re-run the default-target logic it exists to perform.
func loginRedirect(deniedPath string) string {
	if matchesPrefix(deniedPath, constants.RouteAuthRedirect) {
		return constants.RouteLogin
	}

	query := url.Values{}
	query.Set(constants.QueryParamRedirect, deniedPath)
	return constants.RouteLogin + "?" + query.Encode()
}
