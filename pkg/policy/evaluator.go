package policy

import (
	"github.com/platinummonkey/gatehouse/pkg/apierr"
	"github.com/platinummonkey/gatehouse/pkg/auth"
)

// Decision is the outcome of one policy evaluation. Kept only for
// observability and testing; never persisted.
type Decision struct {
	Policy  string
	Allowed bool
}

// HasRole allows authenticated contexts carrying the role tag
func HasRole(ac *auth.Context, tag string) Decision {
	return Decision{Policy: "hasRole(" + tag + ")", Allowed: ac.HasRole(tag)}
}

// IsSelf allows authenticated principals whose id equals the target id
func IsSelf(ac *auth.Context, targetID int64) Decision {
	p, ok := ac.Principal()
	return Decision{Policy: "isSelf", Allowed: ok && p.ID == targetID}
}

// AdminOrSelf allows admins and the owner of the target resource
func AdminOrSelf(ac *auth.Context, targetID int64) Decision {
	allowed := HasRole(ac, auth.RoleAdmin).Allowed || IsSelf(ac, targetID).Allowed
	return Decision{Policy: "adminOrSelf", Allowed: allowed}
}

// AdminOnly allows admins
func AdminOnly(ac *auth.Context) Decision {
	return Decision{Policy: "adminOnly", Allowed: HasRole(ac, auth.RoleAdmin).Allowed}
}

// Require converts a denial into a Forbidden error carrying the policy name
func Require(d Decision) error {
	if d.Allowed {
		return nil
	}
	return apierr.Newf(apierr.KindForbidden, "denied by policy %s", d.Policy)
}
