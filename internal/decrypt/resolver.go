package decrypt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/logging"
)

// Target describes the resource being read.
type Target struct {
	// OwnerID seeds the personal tier. Personal blobs are keyed by their
	// owner, so they stay readable to grantees after a move into a folder.
	OwnerID string
	// PrincipalID is the reader. It is only logged; the legacy tier takes
	// the reader's email from the identity provider.
	PrincipalID string
	// FolderID is set for folder-scoped resources and enables the folder tier.
	FolderID *string
	// Purpose of the personal key; empty means cryptox.DefaultPurpose.
	Purpose string
	// Textual marks base64 wrapped ciphertext (secrets) as opposed to raw file blobs.
	Textual bool
}

// Resolver builds the tier list for a read and runs it.
type Resolver struct {
	emails     EmailSource
	legacySalt string
	logger     logging.Logger
}

// NewResolver returns a Resolver whose legacy tier uses emails and legacySalt.
func NewResolver(emails EmailSource, legacySalt string, logger logging.Logger) *Resolver {
	return &Resolver{emails: emails, legacySalt: legacySalt, logger: logger}
}

// Tiers returns the candidates for target in priority order.
func (r *Resolver) Tiers(target Target) []Tier {
	purpose := target.Purpose
	if purpose == "" {
		purpose = cryptox.DefaultPurpose
	}

	tiers := make([]Tier, 0, 3)
	if target.FolderID != nil && *target.FolderID != "" {
		tiers = append(tiers, FolderTier{FolderID: *target.FolderID, Textual: target.Textual})
	}
	tiers = append(tiers,
		PersonalTier{OwnerID: target.OwnerID, Purpose: purpose, Textual: target.Textual},
		LegacyTier{Emails: r.emails, HistoricalSalt: r.legacySalt, Textual: target.Textual},
	)
	return tiers
}

// Decrypt runs the tiers for target against blob.
func (r *Resolver) Decrypt(ctx context.Context, blob []byte, target Target) ([]byte, error) {
	plaintext, tier, err := Run(ctx, blob, r.Tiers(target)...)
	if err != nil {
		return nil, err
	}
	r.logger.Debug(ctx, "ciphertext resolved", "tier", tier, "principal_id", target.PrincipalID)
	return plaintext, nil
}

// Run tries tiers in order and stops at the first one that authenticates.
// It returns the plaintext and the name of the winning tier, or
// ErrExhaustedDecryptionTiers when none matched.
func Run(ctx context.Context, blob []byte, tiers ...Tier) ([]byte, string, error) {
	tried := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		plaintext, err := tier.Attempt(ctx, blob)
		if err == nil {
			return plaintext, tier.Name(), nil
		}
		if !errors.Is(err, common.ErrAuthenticationFailure) {
			return nil, "", fmt.Errorf("%s tier: %w", tier.Name(), err)
		}
		tried = append(tried, tier.Name())
	}
	return nil, "", fmt.Errorf("%w (tried: %s)", common.ErrExhaustedDecryptionTiers, strings.Join(tried, ", "))
}
