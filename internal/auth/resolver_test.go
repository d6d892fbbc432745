package auth

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestEffectivePermissionsUnionsRoleAndDirectGrants(t *testing.T) {
	store := newFakeStore()
	store.assignments["t1/u1"] = []RoleAssignment{
		{UserID: "u1", RoleID: "r1", TenantID: "t1"},
		{UserID: "u1", RoleID: "r2", TenantID: "t1"},
	}
	store.rolePerms["t1/r1"] = []string{"tasks.update", "rules.view"}
	store.rolePerms["t1/r2"] = []string{"rules.view", "rules.manage"}
	store.directPerms["t1/u1"] = []string{"reports.export", "rules.view"}

	resolver, err := NewResolver(store.Roles(), store.Permissions())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	got, err := resolver.EffectivePermissions(context.Background(), "t1", "u1")
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	want := []string{"reports.export", "rules.manage", "rules.view", "tasks.update"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("permissions = %v, want %v", got, want)
	}
}

func TestEffectivePermissionsEmptyWithoutGrants(t *testing.T) {
	store := newFakeStore()
	resolver, err := NewResolver(store.Roles(), store.Permissions())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	got, err := resolver.EffectivePermissions(context.Background(), "t1", "u1")
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("permissions = %v, want empty", got)
	}
}

func TestEffectivePermissionsValidatesInput(t *testing.T) {
	store := newFakeStore()
	resolver, err := NewResolver(store.Roles(), store.Permissions())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if _, err := resolver.EffectivePermissions(context.Background(), "", "u1"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing tenant = %v, want ErrInvalidInput", err)
	}
	if _, err := resolver.EffectivePermissions(context.Background(), "t1", " "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing user = %v, want ErrInvalidInput", err)
	}
}

func TestActiveRoleCodesDeduplicates(t *testing.T) {
	store := newFakeStore()
	store.roleCodes["t1/u1"] = []string{"admin", "planner", "admin", " "}

	resolver, err := NewResolver(store.Roles(), store.Permissions())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	got, err := resolver.ActiveRoleCodes(context.Background(), "t1", "u1")
	if err != nil {
		t.Fatalf("ActiveRoleCodes: %v", err)
	}
	want := []string{"admin", "planner"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("roles = %v, want %v", got, want)
	}
}
