// Package models holds the client-side view of server responses.
package models

import "time"

// Account mirrors the server's account record.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl"`
	AccountID string    `json:"accountId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Entitlements describes what the signed-in account may do with its vault.
type Entitlements struct {
	Demo           bool  `json:"demo"`
	MaxVaultBytes  int64 `json:"maxVaultBytes"`
	UsedVaultBytes int64 `json:"usedVaultBytes"`
	CanShare       bool  `json:"canShare"`
}

// Me is the current user as returned by the server.
type Me struct {
	Account      *Account     `json:"account"`
	Entitlements Entitlements `json:"entitlements"`
}

// Session is what a successful verification or demo login hands back.
// Secret is the cookie value; Existing is set when a demo login reused an
// already provisioned account.
type Session struct {
	ID       string
	Secret   string
	Existing bool
}
