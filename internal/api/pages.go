// Copyright (c) 2026 OpenShelf. All rights reserved.

package api

import (
	"net/http"

	"github.com/openshelf/openshelf/internal/identity"
	"github.com/openshelf/openshelf/internal/platform/constants"
	requestutil "github.com/openshelf/openshelf/internal/platform/request"
	"github.com/openshelf/openshelf/internal/platform/respond"
	"github.com/openshelf/openshelf/internal/platform/sec"
)

// PageHandler serves the JSON page descriptors the web client renders.
//
// The route guard classifies and gates these paths before they reach the
// handlers; the admin console re-checks the role itself because the guard
// only knows sessions, not profiles.
type PageHandler struct {
	identity *identity.Service
}

// NewPageHandler constructs a [PageHandler].
func NewPageHandler(identityService *identity.Service) *PageHandler {
	return &PageHandler{identity: identityService}
}

// landing handles GET / — the public home page.
func (handler *PageHandler) landing(writer http.ResponseWriter, request *http.Request) {
	payload := map[string]any{
		"page":     "home",
		"app":      constants.AppName,
		"catalog":  constants.RouteBooks,
		"signedIn": identity.SessionFrom(request.Context()) != nil,
	}
	respond.OK(writer, payload)
}

// loginPage handles GET /login. The guard has already bounced signed-in
// clients to the redirector, so this only renders for anonymous visitors.
func (handler *PageHandler) loginPage(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]any{
		"page":       "login",
		"redirectTo": requestutil.Query(request, constants.QueryParamRedirect),
	})
}

// registerPage handles GET /register.
func (handler *PageHandler) registerPage(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]any{"page": "register"})
}

/*
adminConsole handles GET /admin.

Description: The guard guarantees a session, not a role. The role check
happens here against the profile: a signed-in non-admin is sent to their
dashboard rather than shown a forbidden page, matching how the post-auth
router downgrades admin targets.
*/
func (handler *PageHandler) adminConsole(writer http.ResponseWriter, request *http.Request) {
	session := identity.SessionFrom(request.Context())
	if session == nil {
		respond.Redirect(writer, request, constants.RouteLogin)
		return
	}

	role, err := handler.identity.ResolveRole(request.Context(), session)
	if err != nil {
		respond.Redirect(writer, request, constants.RouteLogin)
		return
	}

	if role != sec.RoleAdmin {
		respond.Redirect(writer, request, constants.RouteDashboard)
		return
	}

	respond.OK(writer, map[string]any{
		"page": "admin",
		"sections": []string{
			"books",
			"categories",
			"members",
		},
	})
}
