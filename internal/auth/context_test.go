package auth

import (
	"context"
	"testing"
)

func TestWithPrincipalAndFromContext(t *testing.T) {
	p := Principal{Username: "alice", Role: RoleAdmin}

	ctx := WithPrincipal(context.Background(), p)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected Principal in context")
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q, want %q", got.Username, "alice")
	}
	if got.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", got.Role, RoleAdmin)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing Principal")
	}
}

func TestUsername(t *testing.T) {
	ctx := WithPrincipal(context.Background(), Principal{Username: "bob"})
	if Username(ctx) != "bob" {
		t.Errorf("Username = %q, want %q", Username(ctx), "bob")
	}
	if Username(context.Background()) != "" {
		t.Error("expected empty username for missing context")
	}
}

func TestIsAdmin(t *testing.T) {
	if !IsAdmin(WithPrincipal(context.Background(), Principal{Role: RoleAdmin})) {
		t.Error("expected IsAdmin = true for admin role")
	}
	if IsAdmin(WithPrincipal(context.Background(), Principal{Role: RoleUser})) {
		t.Error("expected IsAdmin = false for user role")
	}
	if IsAdmin(context.Background()) {
		t.Error("expected IsAdmin = false for missing context")
	}
}
