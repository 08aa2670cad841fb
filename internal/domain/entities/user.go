package entities

import (
	"errors"
	"time"
)

// User is the registered account. Password always holds a bcrypt hash,
// never the plaintext secret.
type User struct {
	ID        uint
	CreatedAt time.Time
	UpdatedAt time.Time
	Username  string
	Email     string
	Password  string
}

func NewUser(username, email, passwordHash string) *User {
	now := time.Now()
	return &User{
		CreatedAt: now,
		UpdatedAt: now,
		Username:  username,
		Email:     email,
		Password:  passwordHash,
	}
}

func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username must not be empty")
	}
	if u.Email == "" {
		return errors.New("email must not be empty")
	}
	if u.Password == "" {
		return errors.New("password must not be empty")
	}
	if u.CreatedAt.After(u.UpdatedAt) {
		return errors.New("created_at must be before updated_at")
	}
	return nil
}

func (u *User) SetPassword(passwordHash string) {
	u.Password = passwordHash
	u.UpdatedAt = time.Now()
}
