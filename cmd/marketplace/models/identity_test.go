package models

import "testing"

func TestIdentityIsAdmin(t *testing.T) {
	var anon *Identity
	if anon.IsAdmin() {
		t.Error("nil identity must not be admin")
	}

	user := &Identity{Subject: "user-1", Role: "member"}
	if user.IsAdmin() {
		t.Error("member role must not be admin")
	}

	admin := &Identity{Subject: "user-2", Role: AdminRole}
	if !admin.IsAdmin() {
		t.Error("admin role should be admin")
	}
}

func TestIdentityDisplayName(t *testing.T) {
	named := &Identity{Subject: "user-1", Name: "Ada"}
	if got := named.DisplayName(); got != "Ada" {
		t.Errorf("expected Ada, got %q", got)
	}

	unnamed := &Identity{Subject: "user-2"}
	if got := unnamed.DisplayName(); got != AnonymousName {
		t.Errorf("expected %q, got %q", AnonymousName, got)
	}
}

func TestIdentityReviewedBy(t *testing.T) {
	withEmail := &Identity{Subject: "user-1", Email: "admin@example.com"}
	if got := withEmail.ReviewedBy(); got != "admin@example.com" {
		t.Errorf("expected email, got %q", got)
	}

	withoutEmail := &Identity{Subject: "user-1"}
	if got := withoutEmail.ReviewedBy(); got != "user-1" {
		t.Errorf("expected subject fallback, got %q", got)
	}
}
