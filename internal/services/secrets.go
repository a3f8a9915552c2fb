package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/decrypt"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

// StoreSecret encrypts a password or API key under the purpose of its kind
// and keeps the base64 ciphertext in the metadata row.
func (s *VaultService) StoreSecret(ctx context.Context, req SecretRequest) (*models.Secret, error) {
	kind, err := models.ParseSecretKind(string(req.Kind))
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: secret name is empty", common.ErrInvalidName)
	}
	if req.OwnerID == "" {
		return nil, common.ErrorNoPrincipal
	}
	folderID := common.StrPtr(common.StrVal(req.FolderID))
	if err := s.checkFolder(ctx, folderID); err != nil {
		return nil, err
	}

	key := writeKey(req.OwnerID, folderID, kind.Purpose())
	ciphertext, err := cryptox.EncryptString(req.Value, key)
	key.Wipe()
	if err != nil {
		return nil, err
	}

	secret := &models.Secret{
		ID:         s.newID(),
		OwnerID:    req.OwnerID,
		Kind:       kind,
		Name:       name,
		Ciphertext: ciphertext,
		FolderID:   folderID,
		CreatedAt:  s.now(),
	}
	if err := s.repomanager.Secrets(s.db).Create(ctx, secret); err != nil {
		return nil, metadataErr("insert secret", err)
	}

	s.logger.Info(ctx, "secret stored", "secret_id", secret.ID, "kind", string(kind))
	return secret, nil
}

// RevealSecret decrypts secret on behalf of principalID.
func (s *VaultService) RevealSecret(ctx context.Context, secret *models.Secret, principalID string) (string, error) {
	plaintext, err := s.resolver.Decrypt(ctx, []byte(secret.Ciphertext), decrypt.Target{
		OwnerID:     secret.OwnerID,
		PrincipalID: principalID,
		FolderID:    secret.FolderID,
		Purpose:     secret.Kind.Purpose(),
		Textual:     true,
	})
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(plaintext)
	return string(plaintext), nil
}

func (s *VaultService) MoveSecret(ctx context.Context, secretID string, folderID *string) error {
	folderID = common.StrPtr(common.StrVal(folderID))
	if err := s.checkFolder(ctx, folderID); err != nil {
		return err
	}
	if err := s.repomanager.Secrets(s.db).UpdateFolder(ctx, secretID, folderID); err != nil {
		return metadataErr("move secret", err)
	}
	return nil
}

func (s *VaultService) DeleteSecret(ctx context.Context, secretID string) error {
	if err := s.repomanager.Secrets(s.db).Delete(ctx, secretID); err != nil {
		return metadataErr("delete secret", err)
	}
	s.logger.Info(ctx, "secret deleted", "secret_id", secretID)
	return nil
}

func (s *VaultService) GetSecret(ctx context.Context, secretID string) (*models.Secret, error) {
	secret, err := s.repomanager.Secrets(s.db).Get(ctx, secretID)
	if err != nil {
		return nil, metadataErr("get secret", err)
	}
	return secret, nil
}

func (s *VaultService) ListSecrets(ctx context.Context, ownerID string, folderID *string) ([]*models.Secret, error) {
	list, err := s.repomanager.Secrets(s.db).List(ctx, ownerID, common.StrPtr(common.StrVal(folderID)))
	if err != nil {
		return nil, metadataErr("list secrets", err)
	}
	return list, nil
}
