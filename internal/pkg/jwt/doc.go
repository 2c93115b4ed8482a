// Package jwt issues and verifies the session tokens handed out after a
// successful one-time code verification.
//
// Tokens are HS512-signed and carry the principal id, its variant (user or
// admin) and, for admins, the role. Claims travel through request contexts via
// SetAuth and GetAuth.
package jwt
