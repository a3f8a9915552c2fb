// Package cryptox implements the vault's key derivation and envelope
// encryption primitives: purpose-scoped PBKDF2 keys, AES-256-GCM blobs and
// the read-only legacy scheme kept for data written before AES-GCM.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KDFIterations is fixed: keys are never persisted and must be
	// re-derivable from the same inputs forever.
	KDFIterations = 100000
	KeySize       = 32
)

// Well-known purposes. The same scope derives unrelated keys per purpose.
const (
	PurposeShared    = "shared"
	PurposePasswords = "passwords"
	PurposeAPIKeys   = "apikeys"
	PurposeFiles     = "files"

	DefaultPurpose = PurposeFiles
)

// Key is 256-bit symmetric key material. It lives only in memory.
type Key [KeySize]byte

// Wipe zeroes the key in place.
func (k *Key) Wipe() {
	for i := range k {
		k[i] = 0
	}
}

// DeriveKey derives the key for (seed, scopeID, purpose) with
// PBKDF2-HMAC-SHA256. The salt is built from scopeID and purpose, never
// random, so the same triple always yields the same key.
//
// An empty seed is a caller bug, not a runtime error.
func DeriveKey(seed []byte, scopeID, purpose string) Key {
	var k Key
	dk := pbkdf2.Key(seed, Salt(scopeID, purpose), KDFIterations, KeySize, sha256.New)
	copy(k[:], dk)
	for i := range dk {
		dk[i] = 0
	}
	return k
}

// Salt returns the deterministic KDF salt "scopeID/purpose".
func Salt(scopeID, purpose string) []byte {
	salt := make([]byte, 0, len(scopeID)+1+len(purpose))
	salt = append(salt, scopeID...)
	salt = append(salt, '/')
	salt = append(salt, purpose...)
	return salt
}

// PersonalKey is the key of a principal's own vault for one purpose.
func PersonalKey(principalID, purpose string) Key {
	return DeriveKey([]byte(principalID), principalID, purpose)
}

// FolderKey is the key shared by everyone who knows the folder identifier.
func FolderKey(folderID string) Key {
	return DeriveKey([]byte(folderID), folderID, PurposeShared)
}
