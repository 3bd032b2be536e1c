// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is the application's record of one registered person. Email is
// the natural lookup key; AccountID links the record to the identity that
// proves it.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl"`
	AccountID string    `json:"accountId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Entitlements describes what the current account may do with its vault.
type Entitlements struct {
	Demo           bool  `json:"demo"`
	MaxVaultBytes  int64 `json:"maxVaultBytes"`
	UsedVaultBytes int64 `json:"usedVaultBytes"`
	CanShare       bool  `json:"canShare"`
}
