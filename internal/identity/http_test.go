// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/openshelf/openshelf/internal/identity"
)

/*
TestHandler_AuthRedirect_PreservesTarget verifies that the redirector
keeps a valid redirectTo alive when it bounces a session-less client back
to the login page, and drops unsafe values.
*/
func TestHandler_AuthRedirect_PreservesTarget(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantLocation string
	}{
		{
			name:         "valid_target_forwarded",
			url:          "/auth-redirector?redirectTo=%2Fbooks%2F42",
			wantLocation: "/login?redirectTo=%2Fbooks%2F42",
		},
		{
			name:         "no_target",
			url:          "/auth-redirector",
			wantLocation: "/login",
		},
		{
			name:         "unsafe_target_dropped",
			url:          "/auth-redirector?redirectTo=%2F%2Fevil.example.com",
			wantLocation: "/login",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No session in the context: the handler redirects before it
			// ever touches the service.
			handler := identity.NewHandler(nil, false)
			router := chi.NewRouter()
			handler.RegisterPageRoutes(router)

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, http.StatusSeeOther, recorder.Code)
			assert.Equal(t, tt.wantLocation, recorder.Header().Get("Location"))
		})
	}
}
