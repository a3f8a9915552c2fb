// Package decrypt resolves which cryptographic generation a stored ciphertext
// belongs to. Every read walks an ordered list of tiers (folder-shared key,
// personal key, legacy scheme) and returns the plaintext of the first tier
// that authenticates, so old data stays readable without a migration pass.
package decrypt

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
)

// Tier is one decryption generation. Attempt returns an error wrapping
// common.ErrAuthenticationFailure when the blob does not belong to it; any
// other error aborts the whole resolution.
type Tier interface {
	Name() string
	Attempt(ctx context.Context, blob []byte) ([]byte, error)
}

// EmailSource is the part of the identity provider the legacy tier needs.
type EmailSource interface {
	PrincipalEmail(ctx context.Context) (string, error)
}

// FolderTier tries the key shared by a folder.
type FolderTier struct {
	FolderID string
	Textual  bool
}

func (t FolderTier) Name() string { return "folder" }

func (t FolderTier) Attempt(_ context.Context, blob []byte) ([]byte, error) {
	key := cryptox.FolderKey(t.FolderID)
	defer key.Wipe()
	return openGCM(blob, key, t.Textual)
}

// PersonalTier tries the resource owner's key for one purpose.
type PersonalTier struct {
	OwnerID string
	Purpose string
	Textual bool
}

func (t PersonalTier) Name() string { return "personal" }

func (t PersonalTier) Attempt(_ context.Context, blob []byte) ([]byte, error) {
	key := cryptox.PersonalKey(t.OwnerID, t.Purpose)
	defer key.Wipe()
	return openGCM(blob, key, t.Textual)
}

// LegacyTier tries the pre-GCM scheme keyed by the principal's email. The
// email is fetched only when this tier is actually reached.
type LegacyTier struct {
	Emails         EmailSource
	HistoricalSalt string
	Textual        bool
}

func (t LegacyTier) Name() string { return "legacy" }

func (t LegacyTier) Attempt(ctx context.Context, blob []byte) ([]byte, error) {
	email, err := t.Emails.PrincipalEmail(ctx)
	if errors.Is(err, common.ErrorNoPrincipal) {
		return nil, fmt.Errorf("%w: legacy: no principal email", common.ErrAuthenticationFailure)
	}
	if err != nil {
		return nil, fmt.Errorf("principal email: %w", err)
	}

	plaintext, err := cryptox.LegacyDecrypt(blob, email, t.HistoricalSalt)
	if err != nil {
		return nil, err
	}
	// CBC has no tag: text secrets must at least come out as UTF-8.
	if t.Textual && !utf8.Valid(plaintext) {
		common.WipeByteArray(plaintext)
		return nil, fmt.Errorf("%w: legacy: plaintext is not text", common.ErrAuthenticationFailure)
	}
	return plaintext, nil
}

func openGCM(blob []byte, key cryptox.Key, textual bool) ([]byte, error) {
	if textual {
		raw, err := base64.StdEncoding.DecodeString(string(blob))
		if err != nil {
			return nil, fmt.Errorf("%w: base64: %v", common.ErrAuthenticationFailure, err)
		}
		blob = raw
	}
	return cryptox.Decrypt(blob, key)
}
