package users

import (
	"time"

	"github.com/platinummonkey/gatehouse/pkg/auth"
)

// User is a stored user record
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Nickname     string    `json:"nickname"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // Never expose the hash
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal returns the identity view of the user
func (u *User) Principal() auth.Principal {
	return auth.Principal{
		ID:       u.ID,
		Username: u.Username,
		Nickname: u.Nickname,
	}
}
