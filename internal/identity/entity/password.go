package entity

import (
	"unicode"
	"unicode/utf8"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const (
	PasswordMinLength = 6
	PasswordMaxLength = 24
	// GeneratedPasswordLength is the length of passwords issued by provisioning.
	GeneratedPasswordLength = 16
)

// CheckPasswordStrength accepts next when it is 6-24 characters, differs from
// current and mixes at least three of upper, lower, digit and symbol.
func CheckPasswordStrength(next, current string) error {
	n := utf8.RuneCountInString(next)
	if n < PasswordMinLength || n > PasswordMaxLength {
		return goerror.NewBusiness("Password must be between 6 and 24 characters.", goerror.CodeWeakPassword)
	}

	if next == current {
		return goerror.NewBusiness("New password must be different from the current password.", goerror.CodeWeakPassword)
	}

	var upper, lower, digit, symbol bool
	for _, r := range next {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	classes := 0
	for _, ok := range []bool{upper, lower, digit, symbol} {
		if ok {
			classes++
		}
	}
	if classes < 3 {
		return goerror.NewBusiness("Password must contain at least three of uppercase, lowercase, digits and symbols.", goerror.CodeWeakPassword)
	}

	return nil
}
