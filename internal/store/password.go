package store

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a plaintext password into its stored form and checks
// candidates against it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(stored, candidate string) bool
}

// BcryptHasher stores bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h BcryptHasher) Compare(stored, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
}

// PlainHasher stores passwords verbatim and compares by exact equality.
// It reproduces the legacy browser store and is not safe for production.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlainHasher) Compare(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// NewPasswordHasher resolves a hasher by name.
func NewPasswordHasher(name string) (PasswordHasher, error) {
	switch name {
	case "", "bcrypt":
		return BcryptHasher{}, nil
	case "plain":
		return PlainHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", name)
	}
}
