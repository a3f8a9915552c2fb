// Package models defines the vault's metadata rows. Ciphertext itself lives
// in the object store; rows only point at it.
package models

import "time"

// File describes an encrypted blob stored in the object store.
type File struct {
	ID      string
	OwnerID string
	// Name is the original file name as uploaded.
	Name     string
	Size     int64
	MimeType string
	// StoragePath is the object store key of the ciphertext.
	StoragePath string
	// FolderID nil means the blob was encrypted under the owner's personal
	// key; otherwise it was written under the folder's shared key. Moving a
	// file changes this field without re-encrypting.
	FolderID  *string
	CreatedAt time.Time
}
