package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Kampayn/kampayn-be/internal/logger"
	"github.com/Kampayn/kampayn-be/internal/models"
)

const (
	DefaultCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	issuerPrefix    = "https://securetoken.google.com/"

	defaultTimeout = 5 * time.Second

	// Used when provider response has no max-age
	defaultCertsTTL = time.Hour
)

type FirebaseConfig struct {
	// Project id is both audience and issuer suffix of ID tokens
	// Required
	ProjectID string

	// Where public certificates are published
	// If not set than DefaultCertsURL is used
	CertsURL string

	// Bound for a single verification including certificates download
	Timeout time.Duration

	Client *http.Client
}

type firebaseClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// FirebaseVerifier verifies Firebase Auth ID tokens
// Signing keys are downloaded from the provider and cached as long as provider allows
type FirebaseVerifier struct {
	projectID string
	certsURL  string
	timeout   time.Duration

	client *http.Client
	logger logger.Logger

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	keysUntil time.Time
}

func NewFirebaseVerifier(cfg FirebaseConfig, l logger.Logger) (*FirebaseVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase project id must not be empty")
	}
	if cfg.CertsURL == "" {
		cfg.CertsURL = DefaultCertsURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &FirebaseVerifier{
		projectID: cfg.ProjectID,
		certsURL:  cfg.CertsURL,
		timeout:   cfg.Timeout,
		client:    cfg.Client,
		logger:    l,
	}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (models.Identity, error) {
	var identity models.Identity

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	keys, err := v.publicKeys(ctx)
	if err != nil {
		return identity, invalid(err)
	}

	claims := &firebaseClaims{}
	_, err = jwt.ParseWithClaims(
		idToken,
		claims,
		func(t *jwt.Token) (any, error) {
			kid, _ := t.Header["kid"].(string)
			key, ok := keys[kid]
			if !ok {
				return nil, fmt.Errorf("unknown key id %q", kid)
			}
			return key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(issuerPrefix+v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return identity, invalid(err)
	}
	if claims.Subject == "" {
		return identity, invalid(errors.New("token has no subject"))
	}

	return models.Identity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}

// Return cached keys or download fresh ones
func (v *FirebaseVerifier) publicKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keys != nil && time.Now().Before(v.keysUntil) {
		return v.keys, nil
	}

	keys, ttl, err := v.fetchKeys(ctx)
	if err != nil {
		return nil, err
	}

	v.keys, v.keysUntil = keys, time.Now().Add(ttl)
	v.logger.Debug("Identity provider keys refreshed", "count", len(keys), "ttl", ttl)

	return keys, nil
}

func (v *FirebaseVerifier) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		v.logger.Warn("Failed to get identity provider keys", "status_code", resp.StatusCode)
		return nil, 0, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, certPEM := range certs {
		key, err := parseCertificateKey(certPEM)
		if err != nil {
			v.logger.Warn("Skip bad identity provider certificate", "kid", kid, "error", err)
			continue
		}
		keys[kid] = key
	}
	if len(keys) == 0 {
		return nil, 0, errors.New("no usable keys in provider response")
	}

	return keys, maxAge(resp.Header.Get("Cache-Control")), nil
}

func parseCertificateKey(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, errors.New("not a PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA key")
	}
	return key, nil
}

var maxAgeRe = regexp.MustCompile(`max-age=(\d+)`)

func maxAge(cacheControl string) time.Duration {
	m := maxAgeRe.FindStringSubmatch(cacheControl)
	if m == nil {
		return defaultCertsTTL
	}
	seconds, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultCertsTTL
	}
	return time.Duration(seconds) * time.Second
}
