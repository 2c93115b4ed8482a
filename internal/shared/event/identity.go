// Package event holds the topics and payloads published by the identity
// module for downstream consumers.
package event

import "time"

// Topics.
const (
	PrincipalVerifiedTopic    string = "identity.principal.verified"
	PrincipalProvisionedTopic string = "identity.principal.provisioned"
)

// HeaderCorrelationID carries the request correlation id on every message.
const HeaderCorrelationID string = "cID"

// PrincipalVerifiedMessage is published after a one-time code was accepted.
type PrincipalVerifiedMessage struct {
	PrincipalID int64     `json:"principal_id,string"`
	Variant     string    `json:"variant"`
	Channel     string    `json:"channel"`
	VerifiedAt  time.Time `json:"verified_at"`
}

// PrincipalProvisionedMessage is published after an admin created an account.
type PrincipalProvisionedMessage struct {
	PrincipalID int64     `json:"principal_id,string"`
	Variant     string    `json:"variant"`
	Role        int       `json:"role,omitempty"`
	CreatedBy   int64     `json:"created_by,string"`
	CreatedAt   time.Time `json:"created_at"`
}
