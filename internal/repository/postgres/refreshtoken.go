package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Kampayn/kampayn-be/internal/apperrors"
	"github.com/Kampayn/kampayn-be/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: Save Refresh Token
INSERT INTO refresh_tokens (id, user_id, token, expires_at, issued_at, is_valid, ip_address, user_agent, device_info)
VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, $8)
RETURNING id, user_id, token, expires_at, issued_at, is_valid, ip_address, user_agent, device_info, created_at, updated_at
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, saveToken,
		token.ID, token.UserID, token.Token, token.ExpiresAt, token.IssuedAt,
		nullString(token.IP), nullString(token.UserAgent), nullString(token.Device),
	)
	saved, err := pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getTokenWithOwner = `-- name: GetTokenWithOwner by string itself
SELECT t.id, t.user_id, t.token, t.expires_at, t.issued_at, t.is_valid, t.ip_address, t.user_agent, t.device_info, t.created_at, t.updated_at,
       u.id, u.name, u.email, u.password_hash, u.google_id, u.role, u.email_verified_at, u.created_at, u.updated_at, u.deleted_at
FROM refresh_tokens t
LEFT JOIN users u ON u.id = t.user_id
WHERE t.token = $1
`

// Get token
// It should return result even it expired or invalidated
func (r *RefreshTokenRepo) GetWithOwner(ctx context.Context, tokenString string) (models.RefreshTokenWithOwner, error) {
	rows, _ := r.DB.Query(ctx, getTokenWithOwner, tokenString)
	token, err := pgx.CollectOneRow(rows, rowToRefreshTokenWithOwner)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

// Conditional update is the only guard against concurrent rotation:
// the second transaction waits for the row lock and then sees is_valid = FALSE
const invalidateToken = `-- name: Invalidate token if it is still valid
UPDATE refresh_tokens
SET is_valid = FALSE, updated_at = now()
WHERE id = $1 AND is_valid
RETURNING id
`

func (r *RefreshTokenRepo) Invalidate(ctx context.Context, tokenID uuid.UUID) error {
	rows, _ := r.DB.Query(ctx, invalidateToken, tokenID)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenInvalidated)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	var ip, userAgent, device *string

	err := row.Scan(
		&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.IssuedAt, &t.IsValid,
		&ip, &userAgent, &device, &t.CreatedAt, &t.UpdatedAt,
	)
	t.IP, t.UserAgent, t.Device = deref(ip), deref(userAgent), deref(device)

	return t, err
}

func rowToRefreshTokenWithOwner(row pgx.CollectableRow) (models.RefreshTokenWithOwner, error) {
	var res models.RefreshTokenWithOwner
	var ip, userAgent, device *string

	// Owner columns are NULL when user row is missing
	var (
		ownerID                                     *uuid.UUID
		name, email, passwordHash, externalID, role *string
		createdAt, updatedAt                        *time.Time
		owner                                       models.User
	)

	err := row.Scan(
		&res.ID, &res.UserID, &res.Token, &res.ExpiresAt, &res.IssuedAt, &res.IsValid,
		&ip, &userAgent, &device, &res.CreatedAt, &res.UpdatedAt,
		&ownerID, &name, &email, &passwordHash, &externalID, &role,
		&owner.EmailVerifiedAt, &createdAt, &updatedAt, &owner.DeletedAt,
	)
	if err != nil {
		return res, err
	}
	res.IP, res.UserAgent, res.Device = deref(ip), deref(userAgent), deref(device)

	if ownerID != nil {
		owner.ID = *ownerID
		owner.Name = deref(name)
		owner.Email = deref(email)
		owner.PasswordHash = deref(passwordHash)
		owner.ExternalID = externalID
		owner.Role = models.Role(deref(role))
		owner.CreatedAt, owner.UpdatedAt = *createdAt, *updatedAt
		res.Owner = &owner
	}

	return res, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
