package entity

import "strconv"

// LockKey identifies a principal across variants, e.g. "admin:42".
func LockKey(v Variant, id int64) string {
	return string(v) + ":" + strconv.FormatInt(id, 10)
}

// VerifyOutcome is the terminal state of one verification attempt.
type VerifyOutcome string

const (
	OutcomeVerified VerifyOutcome = "verified"
	OutcomeExpired  VerifyOutcome = "expired"
	OutcomeRejected VerifyOutcome = "rejected"
	OutcomeNotFound VerifyOutcome = "not_found"
)
