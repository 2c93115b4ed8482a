package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/pquerna/otp"
)

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Numeric draws codes uniformly from [0, 10^digits) and zero-pads them.
type Numeric struct {
	digits otp.Digits
	limit  *big.Int
}

// NewNumeric returns a Numeric generator. Anything other than 6 or 8 digits
// falls back to 6.
func NewNumeric(digits otp.Digits) *Numeric {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	limit := big.NewInt(1)
	for range digits.Length() {
		limit.Mul(limit, big.NewInt(10))
	}

	return &Numeric{digits: digits, limit: limit}
}

// Generate returns a fresh code of exactly the configured length.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(rand.Reader, n.limit)
	if err != nil {
		return "", fmt.Errorf("otp: read random: %w", err)
	}

	return n.digits.Format(int32(v.Int64())), nil
}
