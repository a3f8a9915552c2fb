package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
)

// SecretKind selects the key purpose a secret is encrypted under.
type SecretKind string

const (
	SecretPassword SecretKind = "password"
	SecretAPIKey   SecretKind = "apikey"
)

// ParseSecretKind validates a kind coming from user input.
func ParseSecretKind(s string) (SecretKind, error) {
	switch k := SecretKind(s); k {
	case SecretPassword, SecretAPIKey:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrInvalidSecretKind, s)
	}
}

// Purpose returns the KDF purpose for the personal key of this kind.
func (k SecretKind) Purpose() string {
	switch k {
	case SecretPassword:
		return cryptox.PurposePasswords
	case SecretAPIKey:
		return cryptox.PurposeAPIKeys
	default:
		return cryptox.DefaultPurpose
	}
}

// Secret is a short text value (password, API key) whose base64 ciphertext
// is stored inline in the metadata row.
type Secret struct {
	ID         string
	OwnerID    string
	Kind       SecretKind
	Name       string
	Ciphertext string
	FolderID   *string
	CreatedAt  time.Time
}
