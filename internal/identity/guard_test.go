// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/identity"
	"github.com/openshelf/openshelf/internal/platform/constants"
)

// guardRequest drives one request through the guard and reports the
// response plus whatever session the next handler saw.
func guardRequest(t *testing.T, guard *identity.Guard, path, cookie string) (*httptest.ResponseRecorder, *identity.Session) {
	t.Helper()

	var seen *identity.Session
	next := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = identity.SessionFrom(request.Context())
		writer.WriteHeader(http.StatusOK)
	})

	request := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: cookie})
	}

	recorder := httptest.NewRecorder()
	guard.Middleware(next).ServeHTTP(recorder, request)
	return recorder, seen
}

/*
TestGuard_Classification walks the route decision table: which paths
require a session, which are reserved for anonymous clients, and where
each denial redirects.
*/
func TestGuard_Classification(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		signedIn     bool
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "protected_dashboard_denied_anonymous",
			path:         "/dashboard",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?redirectTo=%2Fdashboard",
		},
		{
			name:         "protected_admin_denied_anonymous",
			path:         "/admin/books",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?redirectTo=%2Fadmin%2Fbooks",
		},
		{
			name:       "protected_dashboard_allowed_signed_in",
			path:       "/dashboard",
			signedIn:   true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "public_catalog_allowed_anonymous",
			path:       "/books",
			wantStatus: http.StatusOK,
		},
		{
			name:       "public_book_detail_allowed_anonymous",
			path:       "/books/42",
			wantStatus: http.StatusOK,
		},
		{
			name:         "borrow_beneath_public_catalog_is_protected",
			path:         "/books/borrow/42",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?redirectTo=%2Fbooks%2Fborrow%2F42",
		},
		{
			name:       "login_allowed_anonymous",
			path:       "/login",
			wantStatus: http.StatusOK,
		},
		{
			name:         "login_forwarded_when_signed_in",
			path:         "/login",
			signedIn:     true,
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/auth-redirector",
		},
		{
			name:         "login_forwards_redirect_target_when_signed_in",
			path:         "/login?redirectTo=%2Fbooks%2F42",
			signedIn:     true,
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/auth-redirector?redirectTo=%2Fbooks%2F42",
		},
		{
			name:         "login_drops_unsafe_redirect_target_when_signed_in",
			path:         "/login?redirectTo=%2F%2Fevil.example.com",
			signedIn:     true,
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/auth-redirector",
		},
		{
			name:         "register_forwarded_when_signed_in",
			path:         "/register",
			signedIn:     true,
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/auth-redirector",
		},
		{
			name:         "redirector_denied_without_redirect_param",
			path:         "/auth-redirector",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login",
		},
		{
			name:       "root_is_public",
			path:       "/",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeSessionStore()
			cookie := ""
			if tt.signedIn {
				store.sessions["tok-1"] = &identity.Session{SubjectID: "subject-1", Email: "ada@example.com"}
				cookie = "tok-1"
			}
			guard := identity.NewGuard(store, testLogger())

			recorder, _ := guardRequest(t, guard, tt.path, cookie)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, recorder.Header().Get("Location"))
			}
		})
	}
}

/*
TestGuard_AttachesSession verifies that a resolved session rides the
request context into the next handler.
*/
func TestGuard_AttachesSession(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["tok-1"] = &identity.Session{SubjectID: "subject-1", Email: "ada@example.com"}
	guard := identity.NewGuard(store, testLogger())

	_, seen := guardRequest(t, guard, "/books", "tok-1")

	require.NotNil(t, seen)
	assert.Equal(t, "subject-1", seen.SubjectID)
}

/*
TestGuard_FailsClosed verifies that a session-store failure denies
protected paths but leaves public paths reachable (without a session).
*/
func TestGuard_FailsClosed(t *testing.T) {
	store := newFakeSessionStore()
	store.currentErr = errors.New("connection refused")
	guard := identity.NewGuard(store, testLogger())

	recorder, _ := guardRequest(t, guard, "/dashboard", "tok-1")
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, "/login?redirectTo=%2Fdashboard", recorder.Header().Get("Location"))

	recorder, seen := guardRequest(t, guard, "/books", "tok-1")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, seen)
}

/*
TestGuard_SkipsNonPageSurfaces verifies that the API, health, and metrics
surfaces pass through untouched.
*/
func TestGuard_SkipsNonPageSurfaces(t *testing.T) {
	store := newFakeSessionStore()
	store.currentErr = errors.New("connection refused")
	guard := identity.NewGuard(store, testLogger())

	for _, path := range []string{"/api/v1/books", "/health", "/ready", "/metrics"} {
		recorder, _ := guardRequest(t, guard, path, "")
		assert.Equal(t, http.StatusOK, recorder.Code, path)
	}
}
