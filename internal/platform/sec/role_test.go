// Copyright (c) 2026 OpenShelf. All rights reserved.

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openshelf/openshelf/internal/platform/sec"
)

/*
TestRole_AtLeast tests the role hierarchy comparison.
*/
func TestRole_AtLeast(t *testing.T) {
	tests := []struct {
		name   string
		role   sec.Role
		target sec.Role
		want   bool
	}{
		{name: "admin_meets_admin", role: sec.RoleAdmin, target: sec.RoleAdmin, want: true},
		{name: "admin_meets_user", role: sec.RoleAdmin, target: sec.RoleUser, want: true},
		{name: "user_meets_user", role: sec.RoleUser, target: sec.RoleUser, want: true},
		{name: "user_below_admin", role: sec.RoleUser, target: sec.RoleAdmin, want: false},
		{name: "unknown_below_user", role: sec.Role("guest"), target: sec.RoleUser, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.AtLeast(tt.target))
		})
	}
}

/*
TestRole_Valid tests membership in the known role set.
*/
func TestRole_Valid(t *testing.T) {
	assert.True(t, sec.RoleAdmin.Valid())
	assert.True(t, sec.RoleUser.Valid())
	assert.False(t, sec.Role("superuser").Valid())
	assert.False(t, sec.Role("").Valid())
}
