package auth

import "sort"

// Role tags attached to authenticated principals
const (
	// RoleUser is the baseline role every authenticated user carries
	RoleUser = "ROLE_USER"
	// RoleAdmin grants administrative access
	RoleAdmin = "ROLE_ADMIN"
)

// Principal identifies who is making a request. Immutable once constructed.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

// RoleSet is an unordered, duplicate-free set of role tags
type RoleSet map[string]struct{}

// NewRoleSet builds a role set from tags, deduplicating as it goes
func NewRoleSet(tags ...string) RoleSet {
	s := make(RoleSet, len(tags))
	for _, tag := range tags {
		s[tag] = struct{}{}
	}
	return s
}

// Has reports whether the set contains tag
func (s RoleSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Add inserts tag into the set
func (s RoleSet) Add(tag string) {
	s[tag] = struct{}{}
}

// Tags returns the tags in sorted order for stable output
func (s RoleSet) Tags() []string {
	tags := make([]string, 0, len(s))
	for tag := range s {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Context is the per-request authentication context. It is exactly one of
// anonymous or authenticated, and transitions at most once (anonymous to
// authenticated) during session resolution.
type Context struct {
	principal *Principal
	roles     RoleSet
}

// Anonymous returns an unauthenticated context
func Anonymous() *Context {
	return &Context{}
}

// Authenticated returns a context for the given principal and roles
func Authenticated(p Principal, roles RoleSet) *Context {
	return &Context{principal: &p, roles: roles}
}

// IsAuthenticated reports whether the context carries a real identity.
// Safe to call on a nil context.
func (c *Context) IsAuthenticated() bool {
	return c != nil && c.principal != nil
}

// Principal returns the resolved principal, or false for anonymous contexts
func (c *Context) Principal() (Principal, bool) {
	if !c.IsAuthenticated() {
		return Principal{}, false
	}
	return *c.principal, true
}

// Roles returns the role set. Anonymous contexts have no roles.
func (c *Context) Roles() RoleSet {
	if !c.IsAuthenticated() {
		return nil
	}
	return c.roles
}

// HasRole reports whether the context is authenticated and carries tag
func (c *Context) HasRole(tag string) bool {
	return c.IsAuthenticated() && c.roles.Has(tag)
}
