package domain

import (
	"errors"
	"time"

	"bookshelf/internal/resource"
)

// User is the domain entity for a user account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsStaff      bool
	DateJoined   time.Time
}

// UserFromAttrs reads a stored user snapshot.
func UserFromAttrs(a resource.Attrs) User {
	u := User{ID: a.ID()}
	u.Username, _ = a["username"].(string)
	u.Email, _ = a["email"].(string)
	u.PasswordHash, _ = a["password_hash"].(string)
	u.IsStaff, _ = a["is_staff"].(bool)
	u.DateJoined, _ = a["date_joined"].(time.Time)
	return u
}

// Actor is the identity u acts under when authenticated with scheme.
func (u User) Actor(scheme string) *resource.Actor {
	return &resource.Actor{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff, Scheme: scheme}
}

// ErrInvalidCredentials is returned when a username and password do not
// match an account.
var ErrInvalidCredentials = errors.New("invalid credentials")
