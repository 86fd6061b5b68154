// Package model defines domain entities for the application.
package model

// User is owned by the user service. PasswordHash is an Argon2id PHC string
// and is never rendered to clients.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Clone returns a copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
