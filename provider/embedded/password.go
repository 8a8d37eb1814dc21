package embedded

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmptyPassword rejects hashing an empty string.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordMismatch reports a failed hash comparison.
	ErrPasswordMismatch = errors.New("password does not match")
)

// HashPassword will generate a password hash. An optional cost overrides
// the build default.
func HashPassword(password string, cost ...int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hashCost := passwordHashCost()
	if len(cost) > 0 && cost[0] != 0 {
		hashCost = cost[0]
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	}
	return nil
}

// RandomPasswordHash locks an account behind an unguessable password until
// the owner resets it.
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
