package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kampayn/kampayn-be/internal/apperrors"
	"github.com/Kampayn/kampayn-be/internal/logger"
	"github.com/Kampayn/kampayn-be/internal/models"
	"github.com/Kampayn/kampayn-be/internal/repository"
	"github.com/Kampayn/kampayn-be/internal/service/auth/tokenmanager"
	"github.com/Kampayn/kampayn-be/internal/service/identity"
	"github.com/Kampayn/kampayn-be/internal/service/ratelimit"
)

type Config struct {
	// Hasher to use during registration or login
	// If not set bcrypt is used
	Hasher PasswordHasher

	// Identity provider to verify assertions
	// If not set social login and assertion login are rejected
	Identity identity.Verifier

	// Failed login throttle
	// If not set attempts are not limited
	Throttle ratelimit.Limiter

	// Password login must carry identity assertion
	RequireIdentityToken bool

	Logger logger.Logger
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string

	// Optional identity assertion, required when RequireIdentityToken is set
	IDToken string
}

// Result of every successful login
type Session struct {
	User   models.User
	Tokens models.TokenPair
}

// Auth service
type AuthService struct {
	hasher   PasswordHasher
	tokens   *tokenmanager.TokenManager
	storage  repository.Storage
	identity identity.Verifier
	throttle ratelimit.Limiter
	logger   logger.Logger

	requireIdentityToken bool

	// Compared against when account has no hash, so every failed login costs one compare
	dummyHash string
}

func NewService(cfg Config, tokens *tokenmanager.TokenManager, storage repository.Storage) (*AuthService, error) {
	if tokens == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	if cfg.Hasher == nil {
		cfg.Hasher = BcryptHasher{}
	}
	if cfg.Identity == nil {
		cfg.Identity = identity.Disabled{}
	}
	if cfg.Throttle == nil {
		cfg.Throttle = ratelimit.Noop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}

	dummyHash, err := cfg.Hasher.Hash("kampayn-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("dummy password hash: %w", err)
	}

	return &AuthService{
		hasher:               cfg.Hasher,
		tokens:               tokens,
		storage:              storage,
		identity:             cfg.Identity,
		throttle:             cfg.Throttle,
		logger:               cfg.Logger,
		requireIdentityToken: cfg.RequireIdentityToken,
		dummyHash:            dummyHash,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates account without role
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
	})
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info("User registered", "user_id", user.ID)
	return user, nil
}

// Login with email and password
// Every credentials failure is reported as apperrors.ErrInvalidCredentials, the reason is only logged
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta models.ClientMeta) (Session, error) {
	email := normalizeEmail(in.Email)
	emailKey, ipKey := "email:"+email, "ip:"+meta.IP

	if !s.throttle.Allowed(ctx, emailKey) || (meta.IP != "" && !s.throttle.Allowed(ctx, ipKey)) {
		s.logger.Warn("Login throttled", "email", email, "ip", meta.IP)
		return Session{}, apperrors.ErrTooManyLoginAttempts
	}

	if s.requireIdentityToken && in.IDToken == "" {
		return Session{}, apperrors.ErrIdentityTokenRequired
	}

	reject := func(reason string, err error) (Session, error) {
		s.logger.Info("Login rejected", "reason", reason, "email", email, "ip", meta.IP)
		s.throttle.Fail(ctx, emailKey)
		if meta.IP != "" {
			s.throttle.Fail(ctx, ipKey)
		}
		return Session{}, err
	}

	user, err := s.storage.User().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.dummyHash, in.Password)
		return reject("user not found", apperrors.ErrInvalidCredentials)
	case err != nil:
		return Session{}, err
	case !user.HasPassword():
		_ = s.hasher.Compare(s.dummyHash, in.Password)
		return reject("no password set", apperrors.ErrInvalidCredentials)
	case !user.IsActive():
		_ = s.hasher.Compare(s.dummyHash, in.Password)
		return reject("user deleted", apperrors.ErrInvalidCredentials)
	}

	err = s.hasher.Compare(user.PasswordHash, in.Password)
	switch {
	case errors.Is(err, ErrPasswordMismatch):
		return reject("wrong password", apperrors.ErrInvalidCredentials)
	case err != nil:
		s.logger.Error("Failed to compare password", "user_id", user.ID, "error", err)
		return reject("broken password hash", apperrors.ErrInvalidCredentials)
	}

	// Assertion is verified before transaction is opened
	if in.IDToken != "" {
		id, err := s.identity.Verify(ctx, in.IDToken)
		switch {
		case err != nil:
			return reject(err.Error(), apperrors.ErrIdentityTokenInvalid)
		case !id.EmailVerified:
			return reject("assertion email not verified", apperrors.ErrIdentityTokenInvalid)
		case normalizeEmail(id.Email) != user.Email:
			return reject("assertion email mismatch", apperrors.ErrIdentityTokenInvalid)
		}
	}

	s.throttle.Reset(ctx, emailKey)

	var session Session
	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		verified, err := tx.User().MarkEmailVerified(ctx, user.ID, time.Now())
		if err != nil {
			return err
		}

		pair, err := s.issue(ctx, tx, verified, meta)
		if err != nil {
			return err
		}

		session = Session{User: verified, Tokens: pair}
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	s.logger.Info("User logged in", "user_id", session.User.ID)
	return session, nil
}

// SocialLogin finds or creates account by verified identity assertion
func (s *AuthService) SocialLogin(ctx context.Context, idToken string, meta models.ClientMeta) (Session, error) {
	if idToken == "" {
		return Session{}, apperrors.ErrIdentityTokenRequired
	}

	id, err := s.identity.Verify(ctx, idToken)
	if err != nil {
		s.logger.Info("Social login rejected", "reason", err.Error(), "ip", meta.IP)
		return Session{}, apperrors.ErrIdentityTokenInvalid
	}
	if id.Email == "" || !id.EmailVerified {
		s.logger.Info("Social login rejected", "reason", "assertion email missing or not verified", "subject", id.Subject)
		return Session{}, apperrors.ErrIdentityTokenInvalid
	}
	email := normalizeEmail(id.Email)

	var session Session
	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		now := time.Now()

		user, err := tx.User().GetUserByEmail(ctx, email)
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			user, err = tx.User().CreateUser(ctx, models.User{
				Name:            displayName(id.Name, email),
				Email:           email,
				ExternalID:      &id.Subject,
				EmailVerifiedAt: &now,
			})
			if err != nil {
				return err
			}
			s.logger.Info("User registered by identity provider", "user_id", user.ID)
		case err != nil:
			return err
		case !user.IsActive():
			return apperrors.ErrUserInactive
		case user.ExternalID == nil:
			user, err = tx.User().LinkExternalID(ctx, user.ID, id.Subject, now)
			if err != nil {
				return err
			}
		case *user.ExternalID != id.Subject:
			s.logger.Warn("Social login subject mismatch", "user_id", user.ID, "subject", id.Subject)
			return apperrors.ErrIdentityTokenInvalid
		}

		pair, err := s.issue(ctx, tx, user, meta)
		if err != nil {
			return err
		}

		session = Session{User: user, Tokens: pair}
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	return session, nil
}

func displayName(name string, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Refresh rotates refresh token
// Expired token and token of inactive owner are invalidated and this is committed before failure returned
func (s *AuthService) Refresh(ctx context.Context, refresh string, meta models.ClientMeta) (models.TokenPair, error) {
	if refresh == "" {
		return models.TokenPair{}, apperrors.ErrRefreshTokenRequired
	}

	// Strings we never signed don't reach database
	v := s.tokens.VerifyRefresh(refresh)
	if !v.Valid && !v.Expired {
		s.logger.Info("Refresh rejected", "reason", "not a refresh token", "error", v.Err)
		return models.TokenPair{}, apperrors.ErrRefreshTokenNotFound
	}

	var (
		pair    models.TokenPair
		outcome error
	)
	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		token, err := tx.Refresh().GetWithOwner(ctx, refresh)
		if err != nil {
			return err
		}

		if v.Valid && v.Claims.UserID != token.UserID {
			s.logger.Warn("Refresh token subject mismatch", "token_id", token.ID, "user_id", token.UserID)
			return apperrors.ErrRefreshTokenNotFound
		}

		if !token.IsValid {
			s.logger.Warn("Invalidated refresh token reused", "token_id", token.ID, "user_id", token.UserID, "ip", meta.IP)
			return apperrors.ErrRefreshTokenInvalidated
		}

		switch {
		case token.IsExpired(time.Now()):
			outcome = apperrors.ErrRefreshTokenExpired
		case token.Owner == nil || !token.Owner.IsActive():
			outcome = apperrors.ErrUserInactive
		}

		if err := tx.Refresh().Invalidate(ctx, token.ID); err != nil {
			return err
		}
		if outcome != nil {
			// Commit invalidation, failure is returned after transaction
			return nil
		}

		pair, err = s.issue(ctx, tx, *token.Owner, meta)
		return err
	})

	switch {
	case err != nil:
		return models.TokenPair{}, err
	case outcome != nil:
		s.logger.Info("Refresh rejected", "reason", outcome.Error())
		return models.TokenPair{}, outcome
	default:
		return pair, nil
	}
}

// Logout invalidates single refresh token
// Invalidating already invalid token is ok
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	if refresh == "" {
		return apperrors.ErrRefreshTokenRequired
	}

	token, err := s.storage.Refresh().GetWithOwner(ctx, refresh)
	if err != nil {
		return err
	}
	if !token.IsValid {
		return nil
	}

	err = s.storage.Refresh().Invalidate(ctx, token.ID)
	if err != nil && !errors.Is(err, apperrors.ErrRefreshTokenInvalidated) {
		return err
	}

	s.logger.Info("User logged out", "user_id", token.UserID, "token_id", token.ID)
	return nil
}

// Mint token pair and persist refresh token with the storage given
func (s *AuthService) issue(ctx context.Context, tx repository.Storage, user models.User, meta models.ClientMeta) (models.TokenPair, error) {
	access, err := s.tokens.GenerateAccess(models.AccessClaims{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := s.tokens.GenerateRefresh(user.ID)
	if err != nil {
		return models.TokenPair{}, err
	}

	_, err = tx.Refresh().Save(ctx, models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh.Value,
		ExpiresAt: refresh.ExpiresAt,
		IssuedAt:  refresh.IssuedAt,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Device:    meta.Device,
	})
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// VerifyAccess resolves caller identity from access token
func (s *AuthService) VerifyAccess(access string) (models.AccessClaims, error) {
	v := s.tokens.VerifyAccess(access)
	if !v.Valid {
		return models.AccessClaims{}, apperrors.ErrUnauthorized
	}
	return v.Claims.AccessClaims(), nil
}
