package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Kampayn/kampayn-be/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the email or google id exists must return apperrors.ErrEmailAlreadyUsed
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// Get user by it's id or email, soft deleted users are returned too
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Mark email verified if it is not verified yet
	MarkEmailVerified(ctx context.Context, userID uuid.UUID, at time.Time) (models.User, error)

	// Link identity provider subject to the user and mark email verified
	LinkExternalID(ctx context.Context, userID uuid.UUID, externalID string, at time.Time) (models.User, error)

	// Set role only if it is not set yet
	// Must return apperrors.ErrRoleAlreadySet if user has another role
	SetRole(ctx context.Context, userID uuid.UUID, role models.Role) (models.User, error)

	SoftDelete(ctx context.Context, userID uuid.UUID, at time.Time) error
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return token with its owner even if token is expired or invalidated
	// If token not found must return apperrors.ErrRefreshTokenNotFound
	GetWithOwner(ctx context.Context, tokenString string) (models.RefreshTokenWithOwner, error)

	// Flip validity flag of a valid token
	// Must return apperrors.ErrRefreshTokenInvalidated if token was invalidated already,
	// so at most one caller may invalidate the token
	Invalidate(ctx context.Context, tokenID uuid.UUID) error
}

type ProfileRepo interface {
	UpsertBrand(ctx context.Context, p models.BrandProfile) (models.BrandProfile, error)
	UpsertInfluencer(ctx context.Context, p models.InfluencerProfile) (models.InfluencerProfile, error)

	// Return profile matching the role or nil if it is not created yet
	GetProfile(ctx context.Context, userID uuid.UUID, role models.Role) (models.Profile, error)
}

type CampaignRepo interface {
	Create(ctx context.Context, c models.Campaign) (models.Campaign, error)

	// If campaign not found must return apperrors.ErrCampaignNotFound
	Get(ctx context.Context, id uuid.UUID) (models.Campaign, error)
	Update(ctx context.Context, id uuid.UUID, patch models.CampaignPatch) (models.Campaign, error)
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, filter models.CampaignFilter) (models.CampaignPage, error)
}

// Storage gives access to every repository over the same connection
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Profile() ProfileRepo
	Campaign() CampaignRepo

	// Run fn in transaction: commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
