// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity

import (
	"net/url"
	"strings"

	"github.com/openshelf/openshelf/internal/platform/constants"
	"github.com/openshelf/openshelf/internal/platform/sec"
)

// ValidRedirectTarget reports whether a redirectTo value is safe to follow.
//
// Only site-relative paths qualify: the value must start with a single
// "/". A "//host" prefix is a protocol-relative URL and would send the
// client off-site, so it is rejected along with absolute URLs and empty
// values.
func ValidRedirectTarget(target string) bool {
	if target == "" {
		return false
	}
	if !strings.HasPrefix(target, "/") {
		return false
	}
	if strings.HasPrefix(target, "//") {
		return false
	}
	return true
}

// ResolveTarget decides where a freshly authenticated client lands.
//
// A valid redirectTo wins, with one exception: an admin-area target is
// downgraded to the dashboard when the role does not allow it, instead of
// bouncing the client through a forbidden page. Without a usable
// redirectTo, admins land on the admin console and everyone else on the
// dashboard.
func ResolveTarget(redirectTo string, role sec.Role) string {
	if ValidRedirectTarget(redirectTo) {
		if isAdminPath(redirectTo) && role != sec.RoleAdmin {
			return constants.RouteDashboard
		}
		return redirectTo
	}

	if role == sec.RoleAdmin {
		return constants.RouteAdmin
	}
	return constants.RouteDashboard
}

// loginTarget builds the login URL, keeping a valid redirect target alive
// so the client still lands on it after re-authenticating.
func loginTarget(redirectTo string) string {
	if !ValidRedirectTarget(redirectTo) {
		return constants.RouteLogin
	}

	query := url.Values{}
	query.Set(constants.QueryParamRedirect, redirectTo)
	return constants.RouteLogin + "?" + query.Encode()
}

// isAdminPath reports whether a path is inside the admin area.
func isAdminPath(path string) bool {
	return path == constants.RouteAdmin || strings.HasPrefix(path, constants.RouteAdmin+"/")
}
