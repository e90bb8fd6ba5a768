package auth

import "time"

// User represents a persisted login account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Claims are the decoded contents of a verified bearer token.
type Claims struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// LoginResult is returned to the caller after a successful login.
type LoginResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// UserView is the public projection of a user.
type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

func (u User) view() UserView {
	return UserView{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}
