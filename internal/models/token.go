package models

import (
	"time"

	"github.com/google/uuid"
)

// One row per issued refresh token
// Rows are never deleted, only invalidated
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	IssuedAt  time.Time
	IsValid   bool
	IP        string
	UserAgent string
	Device    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Refresh token row joined with its owner
// Owner is nil if account row is missing
type RefreshTokenWithOwner struct {
	RefreshToken
	Owner *User
}

type IssuedToken struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Token pair issued on login, social login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Identity of the caller taken from a verified access token
type AccessClaims struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}
