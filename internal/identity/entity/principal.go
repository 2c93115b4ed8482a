package entity

import "time"

// Variant names the kind of principal. Users and admins live in disjoint
// tables and never share an identifier space.
type Variant string

const (
	VariantUser  Variant = "user"
	VariantAdmin Variant = "admin"
)

func (v Variant) String() string {
	return string(v)
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v == VariantUser || v == VariantAdmin
}

// Channel is the delivery channel of a one-time code.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// PendingOTP is the single outstanding code of a principal. Only the digest
// of the code is kept.
type PendingOTP struct {
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
}

// ExpiredAt reports whether the code is dead at now.
func (p PendingOTP) ExpiredAt(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Principal is the credential-bearing view of a user or an admin.
type Principal struct {
	ID           int64
	Variant      Variant
	Phone        string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	IsVerified   bool
	PendingOTP   *PendingOTP
}

// HasPassword reports whether a password was ever set.
func (p Principal) HasPassword() bool {
	return p.PasswordHash != ""
}

// Registered reports whether a user finished profile completion. Admins are
// always registered.
func (p Principal) Registered() bool {
	if p.Variant == VariantAdmin {
		return true
	}
	return p.Email != "" && p.HasPassword()
}

// LockKey identifies the principal for per-principal exclusion.
func (p Principal) LockKey() string {
	return LockKey(p.Variant, p.ID)
}
