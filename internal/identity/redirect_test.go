// Copyright (c) 2026 OpenShelf. All rights reserved.

package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openshelf/openshelf/internal/identity"
	"github.com/openshelf/openshelf/internal/platform/sec"
)

/*
TestValidRedirectTarget tests the open-redirect filter on redirectTo
values.
*/
func TestValidRedirectTarget(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{name: "relative_path", target: "/books/42", want: true},
		{name: "root", target: "/", want: true},
		{name: "empty", target: "", want: false},
		{name: "protocol_relative", target: "//evil.example.com/phish", want: false},
		{name: "absolute_url", target: "https://evil.example.com", want: false},
		{name: "no_leading_slash", target: "books", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.ValidRedirectTarget(tt.target))
		})
	}
}

/*
TestResolveTarget tests the post-auth landing decision, including the
admin-area downgrade for non-admin roles.
*/
func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name       string
		redirectTo string
		role       sec.Role
		want       string
	}{
		{name: "default_user_lands_on_dashboard", redirectTo: "", role: sec.RoleUser, want: "/dashboard"},
		{name: "default_admin_lands_on_console", redirectTo: "", role: sec.RoleAdmin, want: "/admin"},
		{name: "valid_target_wins", redirectTo: "/books/42", role: sec.RoleUser, want: "/books/42"},
		{name: "valid_target_wins_for_admin", redirectTo: "/dashboard", role: sec.RoleAdmin, want: "/dashboard"},
		{name: "admin_target_downgraded_for_user", redirectTo: "/admin", role: sec.RoleUser, want: "/dashboard"},
		{name: "admin_subpath_downgraded_for_user", redirectTo: "/admin/books", role: sec.RoleUser, want: "/dashboard"},
		{name: "admin_target_kept_for_admin", redirectTo: "/admin/books", role: sec.RoleAdmin, want: "/admin/books"},
		{name: "admin_prefix_outside_area_not_downgraded", redirectTo: "/administration", role: sec.RoleUser, want: "/administration"},
		{name: "invalid_target_falls_back", redirectTo: "//evil.example.com", role: sec.RoleUser, want: "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.ResolveTarget(tt.redirectTo, tt.role))
		})
	}
}
