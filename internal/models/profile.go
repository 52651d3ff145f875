package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is either *BrandProfile or *InfluencerProfile
type Profile interface {
	Role() Role
	profile()
}

type BrandProfile struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Company   string
	Category  *string
	PhotoURL  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (*BrandProfile) Role() Role { return RoleBrand }
func (*BrandProfile) profile()   {}

type FollowerTier string

const (
	TierNano  FollowerTier = "nano"
	TierMicro FollowerTier = "micro"
	TierMacro FollowerTier = "macro"
	TierMega  FollowerTier = "mega"
)

type InfluencerProfile struct {
	ID                      uuid.UUID
	UserID                  uuid.UUID
	InstagramUsername       *string
	PhotoURL                *string
	Categories              []string
	FollowerTier            *FollowerTier
	PortfolioURL            *string
	InstagramFollowers      *int32
	InstagramAvgLikes       *int32
	InstagramAvgComments    *int32
	InstagramEngagementRate *float64
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (*InfluencerProfile) Role() Role { return RoleInfluencer }
func (*InfluencerProfile) profile()   {}

// User with the profile matching its role
// Profile is nil while role is unset or profile is not created yet
type UserWithProfile struct {
	User
	Profile Profile
}
