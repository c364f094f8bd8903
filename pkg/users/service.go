package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/platinummonkey/gatehouse/pkg/apierr"
	"github.com/platinummonkey/gatehouse/pkg/auth"
	"github.com/platinummonkey/gatehouse/pkg/observability"
	"github.com/platinummonkey/gatehouse/pkg/password"
	"github.com/platinummonkey/gatehouse/pkg/policy"
	"github.com/platinummonkey/gatehouse/pkg/roles"
)

// MaxListLimit clamps the page size of List
const MaxListLimit = 1000

// Service is the user business layer. Every protected operation takes the
// caller's authentication context explicitly and runs its policy check before
// touching the store.
type Service struct {
	store     Store
	roleStore roles.Store
	verifier  *password.Verifier
}

// NewService creates a user service
func NewService(store Store, roleStore roles.Store, verifier *password.Verifier) *Service {
	return &Service{store: store, roleStore: roleStore, verifier: verifier}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Create registers a user, hashes the password under the default algorithm
// and grants the baseline role
func (s *Service) Create(ctx context.Context, username, plaintext, nickname, email string) (int64, error) {
	username = normalize(username)
	nickname = normalize(nickname)
	email = normalize(email)

	if username == "" || plaintext == "" {
		return 0, apierr.New(apierr.KindInvalidRequest, "username and password are required")
	}

	hash, err := s.verifier.Encode(plaintext)
	if err != nil {
		return 0, apierr.Wrap(apierr.KindInternal, "failed to encode password", err)
	}

	id, err := s.store.Insert(ctx, username, hash.String(), nickname, email)
	if err != nil {
		if field, ok := DuplicateField(err); ok {
			if field == "" {
				return 0, apierr.New(apierr.KindDuplicate, "value already exists")
			}
			return 0, apierr.Newf(apierr.KindDuplicate, "%s already exists", field)
		}
		return 0, apierr.Wrap(apierr.KindInternal, "failed to create user", err)
	}

	if err := s.roleStore.AddRole(ctx, id, auth.RoleUser); err != nil {
		// The role resolver guarantees the baseline anyway; not fatal for
		// the signup
		observability.FromContext(ctx).WithError(err).WithField("user_id", id).
			Warn("failed to record baseline role grant")
	}
	return id, nil
}

// Get returns a user by id. Admin or self.
func (s *Service) Get(ctx context.Context, ac *auth.Context, id int64) (*User, error) {
	if err := policy.Require(policy.AdminOrSelf(ac, id)); err != nil {
		return nil, err
	}

	u, found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to load user", err)
	}
	if !found {
		return nil, apierr.Newf(apierr.KindNotFound, "user %d does not exist", id)
	}
	return u, nil
}

// List returns up to limit users. Admin only.
func (s *Service) List(ctx context.Context, ac *auth.Context, limit int) ([]User, error) {
	if err := policy.Require(policy.AdminOnly(ac)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, apierr.New(apierr.KindInvalidRequest, "limit must be positive")
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	out, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to list users", err)
	}
	return out, nil
}

// ChangeNickname updates a user's nickname. Admin or self. Setting the
// current nickname again is a successful no-op.
func (s *Service) ChangeNickname(ctx context.Context, ac *auth.Context, id int64, nickname string) error {
	if err := policy.Require(policy.AdminOrSelf(ac, id)); err != nil {
		return err
	}
	nickname = normalize(nickname)

	u, err := s.Get(ctx, ac, id)
	if err != nil {
		return err
	}
	if u.Nickname == nickname {
		return nil
	}

	n, err := s.store.UpdateNickname(ctx, id, nickname)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "failed to update nickname", err)
	}
	if n == 0 {
		return apierr.Newf(apierr.KindNotFound, "user %d does not exist", id)
	}
	return nil
}

// ChangePassword re-encodes the password under the current default algorithm
// and stores the tagged hash. Admin or self. This is the migration path for
// legacy untagged hashes.
func (s *Service) ChangePassword(ctx context.Context, ac *auth.Context, id int64, plaintext string) error {
	if err := policy.Require(policy.AdminOrSelf(ac, id)); err != nil {
		return err
	}
	if plaintext == "" {
		return apierr.New(apierr.KindInvalidRequest, "password is required")
	}

	hash, err := s.verifier.Encode(plaintext)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "failed to encode password", err)
	}

	n, err := s.store.UpdatePassword(ctx, id, hash.String())
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "failed to update password", err)
	}
	if n == 0 {
		return apierr.Newf(apierr.KindNotFound, "user %d does not exist", id)
	}
	return nil
}

// ChangeEmail updates a user's email. Admin or self.
func (s *Service) ChangeEmail(ctx context.Context, ac *auth.Context, id int64, email string) error {
	if err := policy.Require(policy.AdminOrSelf(ac, id)); err != nil {
		return err
	}

	n, err := s.store.UpdateEmail(ctx, id, normalize(email))
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "failed to update email", err)
	}
	if n == 0 {
		return apierr.Newf(apierr.KindNotFound, "user %d does not exist", id)
	}
	return nil
}

// Delete removes a user. Admin or self.
func (s *Service) Delete(ctx context.Context, ac *auth.Context, id int64) error {
	if err := policy.Require(policy.AdminOrSelf(ac, id)); err != nil {
		return err
	}

	n, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, "failed to delete user", err)
	}
	if n == 0 {
		return apierr.Newf(apierr.KindNotFound, "user %d does not exist", id)
	}
	return nil
}

// Login verifies credentials and returns the user id. Establishing the
// session attribute is the transport layer's responsibility, performed only
// after a successful return. Unknown usernames surface as NotFound; a wrong
// password surfaces as Unauthenticated.
func (s *Service) Login(ctx context.Context, username, plaintext string) (int64, error) {
	u, found, err := s.store.FindByUsername(ctx, normalize(username))
	if err != nil {
		return 0, apierr.Wrap(apierr.KindInternal, "failed to load user", err)
	}
	if !found {
		return 0, apierr.Newf(apierr.KindNotFound, "user %q does not exist", username)
	}

	if !s.verifier.VerifyString(plaintext, u.PasswordHash) {
		return 0, apierr.New(apierr.KindUnauthenticated, "invalid credentials")
	}
	return u.ID, nil
}

// LookupPrincipal loads the principal view for a resolved user id. Used by
// the identity introspection endpoint after session resolution.
func (s *Service) LookupPrincipal(ctx context.Context, id int64) (auth.Principal, error) {
	u, found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return auth.Principal{}, apierr.Wrap(apierr.KindInternal, "failed to load user", err)
	}
	if !found {
		return auth.Principal{}, apierr.Newf(apierr.KindNotFound, "user %d does not exist", id)
	}
	return u.Principal(), nil
}

// String renders a user for logs without the credential hash
func (u *User) String() string {
	return fmt.Sprintf("User(%d, %s)", u.ID, u.Username)
}
