package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/repositories/repomanager"
)

// AccessService keeps folder grants. Grants gate metadata operations only:
// the folder key itself is derivable from the folder id.
type AccessService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger

	now func() time.Time
}

func NewAccessService(db *sql.DB, repomanager repomanager.RepositoryManager, logger logging.Logger) *AccessService {
	return &AccessService{
		db:          db,
		repomanager: repomanager,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Grant creates or updates the grant of userID on folderID.
func (s *AccessService) Grant(ctx context.Context, folderID, userID string, level models.AccessLevel, grantedBy string) error {
	level, err := models.ParseAccessLevel(string(level))
	if err != nil {
		return err
	}
	if userID == "" {
		return fmt.Errorf("%w: user id is empty", common.ErrInvalidName)
	}

	now := s.now()
	grant := &models.FolderAccess{
		FolderID:    folderID,
		UserID:      userID,
		AccessLevel: level,
		GrantedBy:   common.StrPtr(grantedBy),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repomanager.Access(s.db).Upsert(ctx, grant); err != nil {
		return metadataErr("grant", err)
	}
	return nil
}

// Revoke removes the grant; revoking a missing grant does nothing.
func (s *AccessService) Revoke(ctx context.Context, folderID, userID string) error {
	if err := s.repomanager.Access(s.db).Delete(ctx, folderID, userID); err != nil {
		return metadataErr("revoke", err)
	}
	return nil
}

func (s *AccessService) List(ctx context.Context, folderID string) ([]*models.FolderAccess, error) {
	list, err := s.repomanager.Access(s.db).List(ctx, folderID)
	if err != nil {
		return nil, metadataErr("list grants", err)
	}
	return list, nil
}

// Check returns the level userID holds on folderID, or nil without a grant.
func (s *AccessService) Check(ctx context.Context, folderID, userID string) (*models.AccessLevel, error) {
	g, err := s.repomanager.Access(s.db).Get(ctx, folderID, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, metadataErr("check grant", err)
	}
	level := g.AccessLevel
	return &level, nil
}

// Authorize lets principalID act on a resource of ownerID. Owners always
// pass; otherwise the resource must sit in a folder where the principal's
// grant satisfies allowed.
func (s *AccessService) Authorize(ctx context.Context, principalID, ownerID string, folderID *string,
	allowed func(models.AccessLevel) bool) error {
	if principalID != "" && principalID == ownerID {
		return nil
	}
	if folderID == nil {
		return fmt.Errorf("%w: %s does not own this resource", common.ErrorUnauthorized, principalID)
	}
	level, err := s.Check(ctx, *folderID, principalID)
	if err != nil {
		return err
	}
	if level == nil || !allowed(*level) {
		return fmt.Errorf("%w: %s lacks access to folder %s", common.ErrorUnauthorized, principalID, *folderID)
	}
	return nil
}

// FolderFailure is one failed sub-operation of a fan-out.
type FolderFailure struct {
	FolderID string
	Err      error
}

// FanOutReport lists what a workspace-wide grant or revoke did per folder.
// Succeeded operations stay applied even when others failed.
type FanOutReport struct {
	Succeeded []string
	Failed    []FolderFailure
}

// Err joins the individual failures, nil when everything succeeded.
func (r *FanOutReport) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("folder %s: %w", f.FolderID, f.Err))
	}
	return errors.Join(errs...)
}

// GrantWorkspace grants userID on the workspace's own folder and on every
// folder currently linked to one of its channels.
func (s *AccessService) GrantWorkspace(ctx context.Context, workspaceID, userID string, level models.AccessLevel,
	grantedBy string) (*FanOutReport, error) {
	if _, err := models.ParseAccessLevel(string(level)); err != nil {
		return nil, err
	}
	return s.fanOut(ctx, "grant", workspaceID, userID, func(folderID string) error {
		return s.Grant(ctx, folderID, userID, level, grantedBy)
	})
}

// RevokeWorkspace is the inverse of GrantWorkspace.
func (s *AccessService) RevokeWorkspace(ctx context.Context, workspaceID, userID string) (*FanOutReport, error) {
	return s.fanOut(ctx, "revoke", workspaceID, userID, func(folderID string) error {
		return s.Revoke(ctx, folderID, userID)
	})
}

func (s *AccessService) fanOut(ctx context.Context, op, workspaceID, userID string, apply func(folderID string) error) (*FanOutReport, error) {
	links, err := s.repomanager.Links(s.db).ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, metadataErr("list workspace folders", err)
	}

	report := &FanOutReport{}
	for _, l := range links {
		if err := apply(l.FolderID); err != nil {
			report.Failed = append(report.Failed, FolderFailure{FolderID: l.FolderID, Err: err})
			s.logger.Warn(ctx, "workspace "+op+" failed for folder",
				"workspace_id", workspaceID, "folder_id", l.FolderID, "user_id", userID, "error", err.Error())
			continue
		}
		report.Succeeded = append(report.Succeeded, l.FolderID)
	}

	s.logger.Info(ctx, "workspace "+op+" fanned out", "workspace_id", workspaceID, "user_id", userID,
		"succeeded", len(report.Succeeded), "failed", len(report.Failed))
	return report, nil
}
