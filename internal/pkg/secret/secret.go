// Package secret generates random credentials handed to people, such as the
// initial password of a provisioned account.
package secret

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// PasswordAlphabet is the character set used by Password.
const PasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+-=[]{}|;:,.<>?"

// ErrLength is returned for a non-positive length.
var ErrLength = errors.New("secret: length must be positive")

// Generator produces random passwords.
type Generator interface {
	Password(length int) (string, error)
}

// Random draws every character independently and uniformly from PasswordAlphabet.
type Random struct{}

// NewRandom returns a Random generator.
func NewRandom() *Random {
	return &Random{}
}

// Password returns a password of exactly length characters.
func (*Random) Password(length int) (string, error) {
	if length <= 0 {
		return "", ErrLength
	}

	limit := big.NewInt(int64(len(PasswordAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = PasswordAlphabet[n.Int64()]
	}

	return string(out), nil
}
