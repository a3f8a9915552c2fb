// Package services composes key derivation, envelope encryption, tiered
// decryption and the two stores into the vault's operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/decrypt"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/objectstore"
	"github.com/dmitrijs2005/gophvault/internal/repositories/repomanager"
	"github.com/google/uuid"
)

const defaultMimeType = "application/octet-stream"

// StoragePath names a blob: upload time for ordering, a random 128-bit token
// so same-millisecond uploads of one name never collide, then the name.
func StoragePath(now time.Time, token, name string) string {
	return fmt.Sprintf("%d_%s_%s.encrypted", now.UnixMilli(), token, common.SanitizeFileName(name))
}

type UploadRequest struct {
	OwnerID  string
	Name     string
	MimeType string
	Content  []byte
	// FolderID selects the folder-shared key; nil uses the owner's personal key.
	FolderID *string
}

type SecretRequest struct {
	OwnerID  string
	Kind     models.SecretKind
	Name     string
	Value    string
	FolderID *string
}

type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objectstore.Store
	resolver    *decrypt.Resolver
	logger      logging.Logger

	now   func() time.Time
	newID func() string
}

func NewVaultService(db *sql.DB, repomanager repomanager.RepositoryManager, store objectstore.Store,
	resolver *decrypt.Resolver, logger logging.Logger) *VaultService {
	return &VaultService{
		db:          db,
		repomanager: repomanager,
		store:       store,
		resolver:    resolver,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// writeKey picks the key a new resource is encrypted under.
func writeKey(ownerID string, folderID *string, purpose string) cryptox.Key {
	if folderID != nil {
		return cryptox.FolderKey(*folderID)
	}
	return cryptox.PersonalKey(ownerID, purpose)
}

func (s *VaultService) checkFolder(ctx context.Context, folderID *string) error {
	if folderID == nil {
		return nil
	}
	if _, err := s.repomanager.Folders(s.db).Get(ctx, *folderID); err != nil {
		return metadataErr("folder", err)
	}
	return nil
}

// Upload encrypts req.Content and stores it. The blob is written before the
// metadata row; when the row cannot be written the blob is deleted again.
func (s *VaultService) Upload(ctx context.Context, req UploadRequest) (*models.File, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: file name is empty", common.ErrInvalidName)
	}
	if req.OwnerID == "" {
		return nil, common.ErrorNoPrincipal
	}
	folderID := common.StrPtr(common.StrVal(req.FolderID))
	if err := s.checkFolder(ctx, folderID); err != nil {
		return nil, err
	}

	key := writeKey(req.OwnerID, folderID, cryptox.PurposeFiles)
	blob, err := cryptox.Encrypt(req.Content, key)
	key.Wipe()
	if err != nil {
		return nil, err
	}

	mime := req.MimeType
	if mime == "" {
		mime = defaultMimeType
	}
	now := s.now()
	file := &models.File{
		ID:          s.newID(),
		OwnerID:     req.OwnerID,
		Name:        name,
		Size:        int64(len(req.Content)),
		MimeType:    mime,
		StoragePath: StoragePath(now, uuid.NewString(), name),
		FolderID:    folderID,
		CreatedAt:   now,
	}

	if err := s.store.Put(ctx, file.StoragePath, blob); err != nil {
		return nil, blobErr("put blob", err)
	}

	if err := s.repomanager.Files(s.db).Create(ctx, file); err != nil {
		if derr := s.store.Delete(ctx, file.StoragePath); derr != nil {
			s.logger.Warn(ctx, "orphaned blob after failed metadata write",
				"path", file.StoragePath, "error", derr.Error())
		}
		return nil, metadataErr("insert file", err)
	}

	s.logger.Info(ctx, "file uploaded", "file_id", file.ID, "size", file.Size, "folder_scoped", folderID != nil)
	return file, nil
}

// Download fetches and decrypts the blob of file on behalf of principalID.
func (s *VaultService) Download(ctx context.Context, file *models.File, principalID string) ([]byte, error) {
	blob, err := s.store.Get(ctx, file.StoragePath)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%w: file %s points at missing blob %s",
			common.ErrStorageInconsistency, file.ID, file.StoragePath)
	}
	if err != nil {
		return nil, blobErr("get blob", err)
	}

	return s.resolver.Decrypt(ctx, blob, decrypt.Target{
		OwnerID:     file.OwnerID,
		PrincipalID: principalID,
		FolderID:    file.FolderID,
		Purpose:     cryptox.PurposeFiles,
	})
}

// Move re-parents a file without touching its ciphertext. Reads keep working
// through the tiered fallback.
func (s *VaultService) Move(ctx context.Context, fileID string, folderID *string) error {
	folderID = common.StrPtr(common.StrVal(folderID))
	if err := s.checkFolder(ctx, folderID); err != nil {
		return err
	}
	if err := s.repomanager.Files(s.db).UpdateFolder(ctx, fileID, folderID); err != nil {
		return metadataErr("move file", err)
	}
	return nil
}

// Delete removes the blob, then the row. A blob that is already gone is
// tolerated so a dangling row can still be cleaned up.
func (s *VaultService) Delete(ctx context.Context, file *models.File) error {
	if err := s.store.Delete(ctx, file.StoragePath); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return blobErr("delete blob", err)
	}

	err := s.repomanager.Files(s.db).Delete(ctx, file.ID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Error(ctx, "blob deleted but metadata row kept", "file_id", file.ID, "error", err.Error())
		return metadataErr("delete file", err)
	}

	s.logger.Info(ctx, "file deleted", "file_id", file.ID)
	return nil
}

func (s *VaultService) Get(ctx context.Context, fileID string) (*models.File, error) {
	f, err := s.repomanager.Files(s.db).Get(ctx, fileID)
	if err != nil {
		return nil, metadataErr("get file", err)
	}
	return f, nil
}

func (s *VaultService) List(ctx context.Context, ownerID string, folderID *string) ([]*models.File, error) {
	list, err := s.repomanager.Files(s.db).List(ctx, ownerID, common.StrPtr(common.StrVal(folderID)))
	if err != nil {
		return nil, metadataErr("list files", err)
	}
	return list, nil
}
