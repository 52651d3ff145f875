package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

var ErrPasswordMismatch = errors.New("password does not match")

// Bcrypt password hasher
// Password is prehashed with sha256 so passwords longer than 72 bytes are not truncated
type BcryptHasher struct {
	// Zero means bcrypt.DefaultCost
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], cost)
	return string(hash), err
}

func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	sum := sha256.Sum256([]byte(password))
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

type Argon2idHasher struct {
	// Nil means argon2id.DefaultParams
	Params *argon2id.Params
}

func (h Argon2idHasher) Hash(password string) (string, error) {
	params := h.Params
	if params == nil {
		params = argon2id.DefaultParams
	}
	return argon2id.CreateHash(password, params)
}

func (h Argon2idHasher) Compare(hashedPassword string, password string) error {
	match, err := argon2id.ComparePasswordAndHash(password, hashedPassword)
	if err != nil {
		return err
	}
	if !match {
		return ErrPasswordMismatch
	}
	return nil
}

// MultiHasher hashes new passwords with the configured algorithm
// and compares against whatever algorithm the stored hash was made with
type MultiHasher struct {
	primary  PasswordHasher
	bcrypt   BcryptHasher
	argon2id Argon2idHasher
}

func NewHasher(name string) (*MultiHasher, error) {
	h := &MultiHasher{}

	switch name {
	case HasherBcrypt, "":
		h.primary = h.bcrypt
	case HasherArgon2id:
		h.primary = h.argon2id
	default:
		return nil, fmt.Errorf("unknown password hasher %q", name)
	}

	return h, nil
}

func (h *MultiHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *MultiHasher) Compare(hashedPassword string, password string) error {
	if strings.HasPrefix(hashedPassword, "$argon2id$") {
		return h.argon2id.Compare(hashedPassword, password)
	}
	return h.bcrypt.Compare(hashedPassword, password)
}
