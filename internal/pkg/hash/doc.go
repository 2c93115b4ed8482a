// Package hash provides helpers for hashing and verifying secrets.
//
// Passwords go through a slow, salted algorithm (bcrypt or argon2id, selected
// by configuration). One-time codes go through HMAC-SHA256 so that a stored
// digest can be compared in constant time and matched in a single SQL
// predicate.
package hash
