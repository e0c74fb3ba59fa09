package domain

import "github.com/google/uuid"

// Session binds an authenticated user profile to one client. It is loaded
// and saved explicitly through a session store.
type Session struct {
	ID   string
	User *User
}

// NewSession starts a session for user
func NewSession(user *User) *Session {
	return &Session{
		ID:   uuid.NewString(),
		User: user,
	}
}
