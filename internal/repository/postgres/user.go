package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Kampayn/kampayn-be/internal/apperrors"
	"github.com/Kampayn/kampayn-be/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, name, email, password_hash, google_id, role, email_verified_at, created_at, updated_at, deleted_at`

const createUser = `-- name: CreateUser
INSERT INTO users (id, name, email, password_hash, google_id, role, email_verified_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createUser,
		u.ID, u.Name, u.Email, nullString(u.PasswordHash), u.ExternalID, nullString(string(u.Role)), u.EmailVerifiedAt,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrEmailAlreadyUsed
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT ` + userColumns + ` FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	return collectUser(rows)
}

const markEmailVerified = `-- name: MarkEmailVerified
UPDATE users
SET email_verified_at = COALESCE(email_verified_at, $2), updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) MarkEmailVerified(ctx context.Context, userID uuid.UUID, at time.Time) (models.User, error) {
	rows, _ := r.DB.Query(ctx, markEmailVerified, userID, at)
	return collectUser(rows)
}

const linkExternalID = `-- name: LinkExternalID
UPDATE users
SET google_id = COALESCE(google_id, $2),
    email_verified_at = COALESCE(email_verified_at, $3),
    updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) LinkExternalID(ctx context.Context, userID uuid.UUID, externalID string, at time.Time) (models.User, error) {
	rows, _ := r.DB.Query(ctx, linkExternalID, userID, externalID, at)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return user, apperrors.ErrEmailAlreadyUsed
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const setRole = `-- name: SetRole only if it is not set yet
UPDATE users
SET role = $2, updated_at = now()
WHERE id = $1 AND (role IS NULL OR role = $2)
RETURNING ` + userColumns

func (r *UserRepo) SetRole(ctx context.Context, userID uuid.UUID, role models.Role) (models.User, error) {
	rows, _ := r.DB.Query(ctx, setRole, userID, string(role))
	user, err := collectUser(rows)
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return user, err
	}

	// Nothing updated: either user is missing or it has another role
	if _, err := r.GetUserByID(ctx, userID); err != nil {
		return user, err
	}
	return user, apperrors.ErrRoleAlreadySet
}

const softDeleteUser = `-- name: SoftDeleteUser
UPDATE users
SET deleted_at = COALESCE(deleted_at, $2), updated_at = now()
WHERE id = $1
`

func (r *UserRepo) SoftDelete(ctx context.Context, userID uuid.UUID, at time.Time) error {
	tag, err := r.DB.Exec(ctx, softDeleteUser, userID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	var passwordHash, role *string

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &passwordHash, &u.ExternalID, &role,
		&u.EmailVerifiedAt, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	if role != nil {
		u.Role = models.Role(*role)
	}

	return u, err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
