package roles

import (
	"context"
	"fmt"

	"github.com/platinummonkey/gatehouse/pkg/auth"
)

// Resolver resolves a user id to a deduplicated role set with the baseline
// role guaranteed
type Resolver struct {
	store    Store
	baseline string
}

// NewResolver creates a resolver with ROLE_USER as the baseline
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store, baseline: auth.RoleUser}
}

// ResolveRoles fetches and dedupes the user's role tags, adding the baseline
// role when the store returned none. Store errors propagate so the caller can
// treat the pass as "could not authenticate".
func (r *Resolver) ResolveRoles(ctx context.Context, userID int64) (auth.RoleSet, error) {
	tags, err := r.store.FindRolesByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve roles for user %d: %w", userID, err)
	}

	set := auth.NewRoleSet(tags...)
	if !set.Has(r.baseline) {
		set.Add(r.baseline)
	}
	return set, nil
}
