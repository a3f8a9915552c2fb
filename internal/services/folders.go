package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/objectstore"
	"github.com/dmitrijs2005/gophvault/internal/repositories/repomanager"
	"github.com/google/uuid"
)

// DeleteGuard may veto a folder delete. It runs inside the delete
// transaction and should return an error wrapping ErrConstraintViolation to
// refuse.
type DeleteGuard func(ctx context.Context, tx dbx.DBTX, folderID string) error

type FolderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objectstore.Store
	logger      logging.Logger
	guards      []DeleteGuard

	now   func() time.Time
	newID func() string
}

// NewFolderService returns a service whose deletes are refused while any
// workspace or channel links into the folder's subtree.
func NewFolderService(db *sql.DB, repomanager repomanager.RepositoryManager, store objectstore.Store,
	logger logging.Logger) *FolderService {
	s := &FolderService{
		db:          db,
		repomanager: repomanager,
		store:       store,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	s.guards = []DeleteGuard{s.linkGuard}
	return s
}

// AddDeleteGuard registers an extra veto for Delete.
func (s *FolderService) AddDeleteGuard(g DeleteGuard) {
	s.guards = append(s.guards, g)
}

func (s *FolderService) linkGuard(ctx context.Context, tx dbx.DBTX, folderID string) error {
	n, err := s.repomanager.Links(tx).CountInTree(ctx, folderID)
	if err != nil {
		return metadataErr("count links", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: folder %s is referenced by %d workspace link(s)", common.ErrConstraintViolation, folderID, n)
	}
	return nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: folder name is empty", common.ErrInvalidName)
	}
	return name, nil
}

func duplicateName(name string) error {
	return fmt.Errorf("%w: a sibling folder named %q already exists", common.ErrConstraintViolation, name)
}

// Create adds a folder under parentID (nil for the top level), appended after
// its siblings.
func (s *FolderService) Create(ctx context.Context, ownerID, name string, parentID *string) (*models.Folder, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, common.ErrorNoPrincipal
	}
	parentID = common.StrPtr(common.StrVal(parentID))

	now := s.now()
	folder := &models.Folder{
		ID:        s.newID(),
		OwnerID:   ownerID,
		Name:      name,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Folders(tx)
		if parentID != nil {
			if _, err := repo.Get(ctx, *parentID); err != nil {
				return metadataErr("parent folder", err)
			}
		}

		taken, err := repo.NameTaken(ctx, ownerID, parentID, name, "")
		if err != nil {
			return metadataErr("check name", err)
		}
		if taken {
			return duplicateName(name)
		}

		folder.DisplayOrder, err = repo.NextDisplayOrder(ctx, ownerID, parentID)
		if err != nil {
			return metadataErr("display order", err)
		}
		if err := repo.Create(ctx, folder); err != nil {
			return metadataErr("insert folder", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *FolderService) Rename(ctx context.Context, folderID, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Folders(tx)
		f, err := repo.Get(ctx, folderID)
		if err != nil {
			return metadataErr("get folder", err)
		}
		taken, err := repo.NameTaken(ctx, f.OwnerID, f.ParentID, name, f.ID)
		if err != nil {
			return metadataErr("check name", err)
		}
		if taken {
			return duplicateName(name)
		}
		if err := repo.Rename(ctx, f.ID, name); err != nil {
			return metadataErr("rename folder", err)
		}
		return nil
	})
}

// Move re-parents a folder. Moving it under itself or one of its descendants
// is refused.
func (s *FolderService) Move(ctx context.Context, folderID string, parentID *string) error {
	parentID = common.StrPtr(common.StrVal(parentID))

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Folders(tx)
		f, err := repo.Get(ctx, folderID)
		if err != nil {
			return metadataErr("get folder", err)
		}

		if parentID != nil {
			if _, err := repo.Get(ctx, *parentID); err != nil {
				return metadataErr("parent folder", err)
			}
			cycle, err := repo.IsInSubtree(ctx, f.ID, *parentID)
			if err != nil {
				return metadataErr("walk tree", err)
			}
			if cycle {
				return fmt.Errorf("%w: cannot move folder %s into its own subtree", common.ErrConstraintViolation, f.ID)
			}
		}

		taken, err := repo.NameTaken(ctx, f.OwnerID, parentID, f.Name, f.ID)
		if err != nil {
			return metadataErr("check name", err)
		}
		if taken {
			return duplicateName(f.Name)
		}
		if err := repo.SetParent(ctx, f.ID, parentID); err != nil {
			return metadataErr("move folder", err)
		}
		return nil
	})
}

func (s *FolderService) Reorder(ctx context.Context, folderID string, order int) error {
	if err := s.repomanager.Folders(s.db).SetDisplayOrder(ctx, folderID, order); err != nil {
		return metadataErr("reorder folder", err)
	}
	return nil
}

func (s *FolderService) Get(ctx context.Context, folderID string) (*models.Folder, error) {
	f, err := s.repomanager.Folders(s.db).Get(ctx, folderID)
	if err != nil {
		return nil, metadataErr("get folder", err)
	}
	return f, nil
}

func (s *FolderService) List(ctx context.Context, ownerID string, parentID *string) ([]*models.Folder, error) {
	list, err := s.repomanager.Folders(s.db).List(ctx, ownerID, common.StrPtr(common.StrVal(parentID)))
	if err != nil {
		return nil, metadataErr("list folders", err)
	}
	return list, nil
}

// Delete removes a folder with everything below it. Guards run first in the
// same transaction, so a refused delete changes nothing. Blobs of cascaded
// files are removed after commit; failures there only leave orphaned
// ciphertext and are logged.
func (s *FolderService) Delete(ctx context.Context, folderID string) error {
	var paths []string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Folders(tx).Get(ctx, folderID); err != nil {
			return metadataErr("get folder", err)
		}

		for _, guard := range s.guards {
			if err := guard(ctx, tx, folderID); err != nil {
				return err
			}
		}

		var err error
		paths, err = s.repomanager.Files(tx).StoragePathsInTree(ctx, folderID)
		if err != nil {
			return metadataErr("collect blobs", err)
		}

		if err := s.repomanager.Folders(tx).Delete(ctx, folderID); err != nil {
			return metadataErr("delete folder", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, p := range paths {
		if err := s.store.Delete(ctx, p); err != nil {
			failed++
			s.logger.Warn(ctx, "orphaned blob after folder delete", "folder_id", folderID, "path", p, "error", err.Error())
		}
	}
	s.logger.Info(ctx, "folder deleted", "folder_id", folderID, "blobs", len(paths), "blob_failures", failed)
	return nil
}

// LinkWorkspace records that a workspace (or one of its channels) references
// the folder.
func (s *FolderService) LinkWorkspace(ctx context.Context, folderID, workspaceID string, kind models.LinkKind) error {
	kind, err := models.ParseLinkKind(string(kind))
	if err != nil {
		return err
	}
	if strings.TrimSpace(workspaceID) == "" {
		return fmt.Errorf("%w: workspace id is empty", common.ErrInvalidName)
	}

	link := &models.FolderLink{FolderID: folderID, WorkspaceID: workspaceID, Kind: kind, CreatedAt: s.now()}
	if err := s.repomanager.Links(s.db).Create(ctx, link); err != nil {
		return metadataErr("link folder", err)
	}
	return nil
}

func (s *FolderService) Unlink(ctx context.Context, folderID, workspaceID string) error {
	if err := s.repomanager.Links(s.db).Delete(ctx, folderID, workspaceID); err != nil {
		return metadataErr("unlink folder", err)
	}
	return nil
}
