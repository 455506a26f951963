// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package authz

import (
	"testing"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer()
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	return e
}

func TestEnforce(t *testing.T) {
	t.Parallel()

	e := newTestEnforcer(t)
	tests := []struct {
		sub, obj, act string
		want          bool
	}{
		{"admin", "/api/admin/deadletter", ActionRead, true},
		{"admin", "/api/admin/deadletter/replay", ActionWrite, true},
		{"analyst", "/api/admin/deadletter", ActionRead, true},
		{"analyst", "/api/admin/deadletter/replay", ActionWrite, false},
		{"analyst", "/api/admin/deadletter", ActionWrite, false},
		{"viewer", "/api/admin/deadletter", ActionRead, false},
		{"admin", "/api/metrics", ActionRead, false},
		{"nobody", "/api/admin/deadletter", ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.sub+" "+tt.act+" "+tt.obj, func(t *testing.T) {
			t.Parallel()
			got, err := e.Enforce(tt.sub, tt.obj, tt.act)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforceWithRoles(t *testing.T) {
	t.Parallel()

	e := newTestEnforcer(t)
	ok, err := e.EnforceWithRoles("ops", []string{"viewer", "admin"}, "/api/admin/deadletter/replay", ActionWrite)
	if err != nil || !ok {
		t.Errorf("EnforceWithRoles(admin role) = %v, %v; want true", ok, err)
	}
	ok, _ = e.EnforceWithRoles("ops", []string{"viewer"}, "/api/admin/deadletter", ActionRead)
	if ok {
		t.Error("viewer role allowed to read dead letters")
	}
}

func TestAddRoleForUser(t *testing.T) {
	t.Parallel()

	e := newTestEnforcer(t)
	if ok, _ := e.Enforce("carol", "/api/admin/deadletter", ActionRead); ok {
		t.Fatal("carol allowed before any role grant")
	}
	if err := e.AddRoleForUser("carol", "analyst"); err != nil {
		t.Fatalf("AddRoleForUser() error = %v", err)
	}
	if ok, _ := e.Enforce("carol", "/api/admin/deadletter", ActionRead); !ok {
		t.Error("carol denied after analyst grant")
	}
	roles, err := e.RolesForUser("carol")
	if err != nil || len(roles) != 1 || roles[0] != "analyst" {
		t.Errorf("RolesForUser() = %v, %v", roles, err)
	}
}

func TestLoadPolicyRejectsMalformed(t *testing.T) {
	t.Parallel()

	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string]string{
		"short p":      "p, admin, /x",
		"short g":      "g, alice",
		"unknown type": "x, a, b, c",
	}
	for name, policy := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			enforcer, err := casbin.NewSyncedEnforcer(m)
			if err != nil {
				t.Fatal(err)
			}
			if err := loadPolicy(enforcer, policy); err == nil {
				t.Errorf("loadPolicy(%q) succeeded", policy)
			}
		})
	}
}
