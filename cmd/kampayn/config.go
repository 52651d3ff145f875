package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Kampayn/kampayn-be/internal/logger"
	"github.com/Kampayn/kampayn-be/internal/service/auth"
	"github.com/Kampayn/kampayn-be/internal/service/auth/tokenmanager"
)

const (
	defaultListenAddr       = "localhost:3000"
	defaultLoggingLevel     = logger.LevelInfo
	defaultEnvironment      = logger.EnvProduction
	defaultAccessTTL        = "15m"
	defaultRefreshTTL       = "7d"
	defaultIdentityTimeout  = 5 * time.Second
	defaultPasswordHasher   = auth.HasherBcrypt
	defaultLoginMaxAttempts = 5
	defaultLoginWindow      = 15 * time.Minute
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Environment: text logs for development, json otherwise
	Environment string

	// HMAC secrets of access and refresh tokens, must differ
	AccessSecret  string
	RefreshSecret string

	// Token lifetime like "15m" or "7d"
	AccessTTL  string
	RefreshTTL string

	// Identity provider project. Social login is disabled if empty
	FirebaseProjectID string
	IdentityTimeout   time.Duration

	// Password login must carry a valid identity assertion
	LoginRequireIDToken bool

	// Algorithm for new password hashes
	PasswordHasher string

	// Failed login throttle. Disabled if redis address is empty
	RedisAddr        string
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

func NewConfig() *Config {
	return &Config{
		LogLevel:         defaultLoggingLevel,
		ListenAddr:       defaultListenAddr,
		Environment:      defaultEnvironment,
		AccessTTL:        defaultAccessTTL,
		RefreshTTL:       defaultRefreshTTL,
		IdentityTimeout:  defaultIdentityTimeout,
		PasswordHasher:   defaultPasswordHasher,
		LoginMaxAttempts: defaultLoginMaxAttempts,
		LoginWindow:      defaultLoginWindow,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) (err error) {
			if value != "" {
				*o, err = strconv.Atoi(value)
			}
			return err
		}
	}
	setBool := func(o *bool) func(value string) error {
		return func(value string) (err error) {
			if value != "" {
				*o, err = strconv.ParseBool(value)
			}
			return err
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) (err error) {
			if value != "" {
				*o, err = time.ParseDuration(value)
			}
			return err
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":            setString(&c.ListenAddr),
		"DATABASE_URI":           setString(&c.DatabaseDSN),
		"LOG_LEVEL":              setString(&c.LogLevel),
		"ENVIRONMENT":            setString(&c.Environment),
		"ACCESS_TOKEN_SECRET":    setString(&c.AccessSecret),
		"REFRESH_TOKEN_SECRET":   setString(&c.RefreshSecret),
		"ACCESS_TOKEN_TTL":       setString(&c.AccessTTL),
		"REFRESH_TOKEN_TTL":      setString(&c.RefreshTTL),
		"FIREBASE_PROJECT_ID":    setString(&c.FirebaseProjectID),
		"IDENTITY_TIMEOUT":       setDuration(&c.IdentityTimeout),
		"LOGIN_REQUIRE_ID_TOKEN": setBool(&c.LoginRequireIDToken),
		"PASSWORD_HASHER":        setString(&c.PasswordHasher),
		"REDIS_ADDR":             setString(&c.RedisAddr),
		"LOGIN_MAX_ATTEMPTS":     setInt(&c.LoginMaxAttempts),
		"LOGIN_WINDOW":           setDuration(&c.LoginWindow),
	}

	var errs []error
	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("kampayn", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (development, production)")
	fs.StringVar(&c.AccessSecret, "access-secret", c.AccessSecret, "Access token secret")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Refresh token secret")
	fs.StringVar(&c.AccessTTL, "access-ttl", c.AccessTTL, "Access token lifetime (like 15m)")
	fs.StringVar(&c.RefreshTTL, "refresh-ttl", c.RefreshTTL, "Refresh token lifetime (like 7d)")
	fs.StringVar(&c.FirebaseProjectID, "firebase-project", c.FirebaseProjectID, "Firebase project id, empty disables social login")
	fs.DurationVar(&c.IdentityTimeout, "identity-timeout", c.IdentityTimeout, "Identity token verification timeout")
	fs.BoolVar(&c.LoginRequireIDToken, "login-require-id-token", c.LoginRequireIDToken, "Require identity token on password login")
	fs.StringVar(&c.PasswordHasher, "password-hasher", c.PasswordHasher, "Password hasher (bcrypt, argon2id)")
	fs.StringVar(&c.RedisAddr, "redis", c.RedisAddr, "Redis address, empty disables login throttling")
	fs.IntVar(&c.LoginMaxAttempts, "login-max-attempts", c.LoginMaxAttempts, "Failed login attempts per window")
	fs.DurationVar(&c.LoginWindow, "login-window", c.LoginWindow, "Failed login throttle window")

	return fs.Parse(args)
}

// Validate options that can't be defaulted
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		errs = append(errs, errors.New("access and refresh token secrets are required"))
	} else if c.AccessSecret == c.RefreshSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	for name, ttl := range map[string]string{"access": c.AccessTTL, "refresh": c.RefreshTTL} {
		if err := tokenmanager.CheckTTL(ttl); err != nil {
			errs = append(errs, fmt.Errorf("%s token lifetime: %w", name, err))
		}
	}
	switch c.PasswordHasher {
	case auth.HasherBcrypt, auth.HasherArgon2id:
	default:
		errs = append(errs, fmt.Errorf("unknown password hasher %q", c.PasswordHasher))
	}
	if c.RedisAddr != "" && (c.LoginMaxAttempts <= 0 || c.LoginWindow <= 0) {
		errs = append(errs, errors.New("login throttle attempts and window must be positive"))
	}

	return errors.Join(errs...)
}
