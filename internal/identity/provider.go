// Package identity supplies the current principal to the vault. Only the
// principal identifier is needed for normal operation; the email is read
// exclusively by the legacy decryption tier.
package identity

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

type Provider interface {
	PrincipalID(ctx context.Context) (string, error)
	PrincipalEmail(ctx context.Context) (string, error)
}

// StaticProvider returns a fixed principal, e.g. one taken from CLI config.
type StaticProvider struct {
	ID    string
	Email string
}

func NewStaticProvider(id, email string) *StaticProvider {
	return &StaticProvider{ID: strings.TrimSpace(id), Email: strings.TrimSpace(email)}
}

func (p *StaticProvider) PrincipalID(context.Context) (string, error) {
	if p.ID == "" {
		return "", common.ErrorNoPrincipal
	}
	return p.ID, nil
}

func (p *StaticProvider) PrincipalEmail(context.Context) (string, error) {
	if p.Email == "" {
		return "", common.ErrorNoPrincipal
	}
	return p.Email, nil
}
