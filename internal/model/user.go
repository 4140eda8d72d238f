package model

import (
	"errors"
	"time"
)

// Identity is the requesting user as asserted by the external identity provider.
// A nil *Identity means the request is anonymous.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// User is the local mirror of an identity. Only the id and the display username
// are kept; accounts themselves live with the identity provider.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserSummary is the author block embedded in posts and comments.
type UserSummary struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
}

// Summary returns the embedded representation of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}

var (
	// ErrUserNotFound is returned when no user has the requested username or id
	ErrUserNotFound = errors.New("user not found")

	// ErrIdentityRequired is returned when a mutation is attempted without an identity
	ErrIdentityRequired = errors.New("authenticated identity required")
)
