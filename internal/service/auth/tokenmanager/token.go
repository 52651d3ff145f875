package tokenmanager

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Kampayn/kampayn-be/internal/models"
)

const (
	AudienceAccess  = "urn:audience:access"
	AudienceRefresh = "urn:audience:refresh"
	Issuer          = "urn:issuer:platform"

	defaultAccessTTL     = "15m"
	defaultRefreshTTL    = "7d"
	defaultSigningMethod = "HS256"

	// Used when ttl spec can't be parsed
	fallbackTTLSeconds = 300

	// Longest lifetime time.Duration can hold
	maxTTLSeconds = math.MaxInt64 / int64(time.Second)
)

var ErrInvalidTTL = errors.New("invalid token lifetime")

// Payload of both token kinds
// Refresh tokens carry only the account id
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"id"`
	Email  string    `json:"email,omitempty"`
	Role   string    `json:"role,omitempty"`
}

// Result of token verification
// Expired is set only for well formed tokens signed with our secret
type Verification struct {
	Valid   bool
	Expired bool
	Claims  *Claims
	Err     error
}

// Token manager with sensible default
type Config struct {
	// Secret keys to sign access and refresh tokens
	// Both required and must differ
	AccessSecret  string
	RefreshSecret string

	// Lifetime specs like "15m" or "7d"
	// If not set than default is used
	AccessTTL  string
	RefreshTTL string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string
}

type TokenManager struct {
	accessKey  []byte
	refreshKey []byte

	alg jwt.SigningMethod

	accessTTL  string
	refreshTTL string
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	setDefault := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefault(&cfg.Alg, defaultSigningMethod)
	setDefault(&cfg.AccessTTL, defaultAccessTTL)
	setDefault(&cfg.RefreshTTL, defaultRefreshTTL)

	alg, ok := jwt.GetSigningMethod(cfg.Alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("signing method %q is not supported", cfg.Alg)
	}

	return &TokenManager{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

var ttlSpec = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseTimeToSeconds converts spec like "15m" to seconds
// Malformed, non positive or too long spec gives 300 seconds
func ParseTimeToSeconds(spec string) int64 {
	seconds, ok := parseTTL(spec)
	if !ok {
		return fallbackTTLSeconds
	}
	return seconds
}

// CheckTTL rejects specs that ParseTimeToSeconds would replace with the fallback
func CheckTTL(spec string) error {
	if _, ok := parseTTL(spec); !ok {
		return fmt.Errorf("%w %q: want positive <number><s|m|h|d> up to %d seconds", ErrInvalidTTL, spec, maxTTLSeconds)
	}
	return nil
}

func parseTTL(spec string) (int64, bool) {
	m := ttlSpec.FindStringSubmatch(spec)
	if m == nil {
		return 0, false
	}

	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || value <= 0 {
		return 0, false
	}

	var unit int64
	switch m[2] {
	case "s":
		unit = 1
	case "m":
		unit = 60
	case "h":
		unit = 60 * 60
	default:
		unit = 60 * 60 * 24
	}

	if value > maxTTLSeconds/unit {
		return 0, false
	}
	return value * unit, true
}

// ExpiresAt returns now + duration of the spec
func ExpiresAt(spec string, now time.Time) time.Time {
	return now.Add(time.Duration(ParseTimeToSeconds(spec)) * time.Second)
}

func (m *TokenManager) GenerateAccess(claims models.AccessClaims) (models.IssuedToken, error) {
	return m.generate(m.accessKey, m.accessTTL, AudienceAccess, Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   string(claims.Role),
	})
}

func (m *TokenManager) GenerateRefresh(userID uuid.UUID) (models.IssuedToken, error) {
	return m.generate(m.refreshKey, m.refreshTTL, AudienceRefresh, Claims{UserID: userID})
}

func (m *TokenManager) generate(key []byte, ttl string, audience string, claims Claims) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := ExpiresAt(ttl, now)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	value, err := jwt.NewWithClaims(m.alg, claims).SignedString(key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, IssuedAt: now, ExpiresAt: expiresAt}, nil
}

func (m *TokenManager) VerifyAccess(token string) Verification {
	return m.Verify(token, m.accessKey, AudienceAccess)
}

func (m *TokenManager) VerifyRefresh(token string) Verification {
	return m.Verify(token, m.refreshKey, AudienceRefresh)
}

// Verify checks structure first and fails closed if token is not well formed
// Then it checks signature, issuer, audience and time bounds
func (m *TokenManager) Verify(token string, key []byte, audience string) Verification {
	if _, _, err := jwt.NewParser().ParseUnverified(token, &Claims{}); err != nil {
		return Verification{Err: fmt.Errorf("malformed token: %w", err)}
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			return key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	switch {
	case err == nil:
		return Verification{Valid: true, Claims: claims}
	case errors.Is(err, jwt.ErrTokenExpired):
		return Verification{Expired: true, Err: err}
	default:
		return Verification{Err: err}
	}
}

// AccessClaims converts verified payload to caller identity
func (c *Claims) AccessClaims() models.AccessClaims {
	return models.AccessClaims{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   models.Role(c.Role),
	}
}
