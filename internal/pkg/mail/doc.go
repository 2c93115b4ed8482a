// Package mail sends email. Use cases depend on the Mail interface; SMTP is
// the production implementation and is used for one-time codes and
// generated credentials.
package mail
