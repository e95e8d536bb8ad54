package domain

import "time"

// Account is one registry entry. Email is the identity key and is unique
// case-insensitively; the profile is owned exclusively by this account.
type Account struct {
	Email            string          `json:"email"`
	Name             string          `json:"name"`
	CredentialDigest string          `json:"credential_digest"`
	Profile          ResourceProfile `json:"profile"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
