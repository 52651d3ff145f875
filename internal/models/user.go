package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account of the platform
// PasswordHash is empty for accounts created through identity provider only
type User struct {
	ID              uuid.UUID
	Name            string
	Email           string
	PasswordHash    string
	ExternalID      *string // subject id at the identity provider
	Role            Role
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

func (u User) IsActive() bool {
	return u.DeletedAt == nil
}

func (u User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// Identity returned by external identity provider after assertion is verified
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// Request metadata stored with every refresh token
type ClientMeta struct {
	IP        string
	UserAgent string
	Device    string
}
