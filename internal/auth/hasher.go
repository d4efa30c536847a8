package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when asked to hash an empty string.
var ErrEmptyPassword = errors.New("password must not be empty")

// Hasher wraps bcrypt with a configurable cost factor. bcrypt is slow,
// salted, and adaptive, which is the point; never swap in a fast hash.
type Hasher struct {
	cost int
}

// NewHasher builds a Hasher. Costs outside bcrypt's valid range fall back
// to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash produces an opaque password hash.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. Any comparison error,
// including a corrupt hash, reads as a mismatch; callers never learn why.
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
