// Package validator validates request and domain structs with
// go-playground/validator v10 and English messages.
//
// Besides the built-in tags it registers phone (10 digits), otpcode
// (6 digits), pan (Indian permanent account number) and password (6-24
// characters). Failures come back as a field to message map keyed in
// snake_case.
package validator
