package api

import (
	"time"

	"github.com/platinummonkey/gatehouse/pkg/users"
)

// UserView is the outward representation of a user. The credential hash
// never leaves the service.
type UserView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserView(u *users.User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Nickname:  u.Nickname,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// IdentityResponse answers login and GET /api/me
type IdentityResponse struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Nickname string   `json:"nickname"`
	Roles    []string `json:"roles,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}
