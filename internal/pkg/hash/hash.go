package hash

import (
	"errors"
	"strings"
)

// ErrUnknownAlgorithm is returned by NewPassword for an unsupported algorithm name.
var ErrUnknownAlgorithm = errors.New("hash: unknown password algorithm")

// Hash is implemented by every hasher in this package.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}

// NewPassword returns the password hasher named by algo ("bcrypt" or "argon2id").
func NewPassword(algo string, bcryptCost int, pepper string) (Hash, error) {
	switch strings.ToLower(strings.TrimSpace(algo)) {
	case "", "bcrypt":
		return NewBcrypt(bcryptCost, pepper), nil
	case "argon2id":
		return NewArgon2id(pepper), nil
	default:
		return nil, ErrUnknownAlgorithm
	}
}
