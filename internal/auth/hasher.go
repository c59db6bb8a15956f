package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used outside of tests.
const DefaultCost = 12

// MaxSecretBytes is the longest input bcrypt accepts.
const MaxSecretBytes = 72

var ErrSecretTooLong = errors.New("secret exceeds 72 bytes")

// Hasher hashes account passwords and message passcodes.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher is a Hasher backed by bcrypt. Salt and cost live in the digest.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxSecretBytes {
		return "", ErrSecretTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(digest), nil
}

// Verify never fails: a malformed digest simply doesn't match.
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// NormalizePasscode makes unlock answers case- and space-insensitive.
func NormalizePasscode(passcode string) string {
	return strings.ToLower(strings.TrimSpace(passcode))
}
