package policy

import (
	"testing"

	"github.com/platinummonkey/gatehouse/pkg/apierr"
	"github.com/platinummonkey/gatehouse/pkg/auth"
)

func authenticated(id int64, tags ...string) *auth.Context {
	return auth.Authenticated(auth.Principal{ID: id, Username: "u"}, auth.NewRoleSet(tags...))
}

func TestHasRole(t *testing.T) {
	if !HasRole(authenticated(1, auth.RoleAdmin), auth.RoleAdmin).Allowed {
		t.Error("admin context must satisfy hasRole(ROLE_ADMIN)")
	}
	if HasRole(authenticated(1, auth.RoleUser), auth.RoleAdmin).Allowed {
		t.Error("user context must not satisfy hasRole(ROLE_ADMIN)")
	}
	if HasRole(auth.Anonymous(), auth.RoleUser).Allowed {
		t.Error("anonymous context must not satisfy any role check")
	}
}

func TestIsSelf(t *testing.T) {
	if !IsSelf(authenticated(5), 5).Allowed {
		t.Error("principal must match own id")
	}
	if IsSelf(authenticated(5), 6).Allowed {
		t.Error("principal must not match another id")
	}
	if IsSelf(auth.Anonymous(), 5).Allowed {
		t.Error("anonymous context is never self")
	}
}

func TestAdminOrSelf(t *testing.T) {
	tests := []struct {
		name    string
		ctx     *auth.Context
		target  int64
		allowed bool
	}{
		{"self without admin role", authenticated(5, auth.RoleUser), 5, true},
		{"admin on another user", authenticated(1, auth.RoleAdmin), 5, true},
		{"admin on self", authenticated(5, auth.RoleAdmin), 5, true},
		{"regular user on another user", authenticated(5, auth.RoleUser), 6, false},
		{"anonymous", auth.Anonymous(), 5, false},
		{"nil context", nil, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := AdminOrSelf(tt.ctx, tt.target)
			if d.Allowed != tt.allowed {
				t.Errorf("adminOrSelf = %v, want %v", d.Allowed, tt.allowed)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	if !AdminOnly(authenticated(1, auth.RoleAdmin)).Allowed {
		t.Error("admin must pass adminOnly")
	}
	if AdminOnly(authenticated(1, auth.RoleUser)).Allowed {
		t.Error("regular user must not pass adminOnly")
	}
	if AdminOnly(auth.Anonymous()).Allowed {
		t.Error("anonymous must not pass adminOnly")
	}
}

func TestRequire(t *testing.T) {
	if err := Require(Decision{Policy: "adminOnly", Allowed: true}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := Require(Decision{Policy: "adminOnly", Allowed: false})
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	if !apierr.IsKind(err, apierr.KindForbidden) {
		t.Errorf("expected forbidden kind, got %v", apierr.KindOf(err))
	}
}
