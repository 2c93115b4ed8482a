package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 produces keyed, deterministic hex digests. Equal inputs give
// equal digests, which lets the store match a one-time code by equality.
type HMACSHA256 struct {
	key []byte
}

// NewHMACSHA256 returns a digester keyed with secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

// Hash returns the lowercase hex digest of plaintext. It never fails.
func (s *HMACSHA256) Hash(plaintext string) ([]byte, error) {
	return []byte(hex.EncodeToString(s.sum(plaintext))), nil
}

// Verify reports whether hashed is the hex digest of plaintext.
func (s *HMACSHA256) Verify(hashed, plaintext string) bool {
	raw, err := hex.DecodeString(hashed)
	if err != nil {
		return false
	}
	return hmac.Equal(raw, s.sum(plaintext))
}

func (s *HMACSHA256) sum(plaintext string) []byte {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(plaintext))
	return m.Sum(nil)
}
