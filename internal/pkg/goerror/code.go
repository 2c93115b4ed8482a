package goerror

import "net/http"

// Type is the broad origin of an error.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

var typeNames = map[Type]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "ERROR_TYPE_UNKNOWN"
}

// Code is the stable error identifier. Each code maps to one HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout

	// One-time code outcomes.
	CodeExpired
	CodeRejected

	// Credential and identity failures.
	CodeInvalidCredential
	CodeWeakPassword
	CodeDuplicate
	CodeDeliveryFailed
	CodeInvalidRole
)

type codeInfo struct {
	name   string
	status int
}

var codes = map[Code]codeInfo{
	CodeInternal:          {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:     {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:      {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:          {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:          {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest:    {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:      {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:         {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:           {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
	CodeExpired:           {"ERROR_CODE_EXPIRED", http.StatusUnauthorized},
	CodeRejected:          {"ERROR_CODE_REJECTED", http.StatusUnauthorized},
	CodeInvalidCredential: {"ERROR_CODE_INVALID_CREDENTIAL", http.StatusUnauthorized},
	CodeWeakPassword:      {"ERROR_CODE_WEAK_PASSWORD", http.StatusUnprocessableEntity},
	CodeDuplicate:         {"ERROR_CODE_DUPLICATE", http.StatusUnprocessableEntity},
	CodeDeliveryFailed:    {"ERROR_CODE_DELIVERY_FAILED", http.StatusInternalServerError},
	CodeInvalidRole:       {"ERROR_CODE_INVALID_ROLE", http.StatusForbidden},
}

func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}
	return codes[CodeInternal].name
}

// Status returns the HTTP status for c; unknown codes are 500.
func (c Code) Status() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
