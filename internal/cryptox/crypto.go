// Package cryptox holds the digests used for one-time codes and passwords.
package cryptox

import (
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// SaltSize is the length of the per-challenge salt.
const SaltSize = 16

// DigestCode derives an argon2id digest of a one-time code.
func DigestCode(code string, salt []byte) []byte {
	return argon2.IDKey([]byte(code), salt, 1, 19*1024, 1, 32)
}

// CheckCode reports whether code matches digest under salt.
func CheckCode(code string, salt, digest []byte) bool {
	got := DigestCode(code, salt)
	return subtle.ConstantTimeCompare(got, digest) == 1
}

func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func CheckPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
