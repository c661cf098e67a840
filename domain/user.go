package domain

import "time"

// User is an account as stored by the user repository.
type User struct {
	ID           string
	Email        string
	Name         string
	Avatar       string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRef is the public slice of a user attached to messages so that clients
// can render sender name and avatar without a second lookup.
type UserRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

func (u User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
