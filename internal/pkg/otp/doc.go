// Package otp generates short numeric one-time codes delivered out of band
// (SMS or email) for identity verification.
package otp
