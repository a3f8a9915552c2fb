// Package links stores references from external collaborators (workspaces
// and their channels) to folders.
package links

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, l *models.FolderLink) error {
	query := `
		INSERT INTO folder_links (folder_id, workspace_id, kind, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (folder_id, workspace_id)
		DO UPDATE SET kind = EXCLUDED.kind
	`
	_, err := r.db.ExecContext(ctx, query, l.FolderID, l.WorkspaceID, string(l.Kind), l.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: folder: %v", common.ErrorNotFound, err)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, folderID, workspaceID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM folder_links WHERE folder_id=$1 AND workspace_id=$2`, folderID, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return dbx.ExpectOneRow(result)
}

// ListByWorkspace returns the workspace's own folder links first, then its
// channel folders.
func (r *PostgresRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.FolderLink, error) {
	query := `
		SELECT folder_id, workspace_id, kind, created_at FROM folder_links
		WHERE workspace_id=$1
		ORDER BY CASE kind WHEN 'workspace' THEN 0 ELSE 1 END, created_at, folder_id
	`
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to select links: %w", err)
	}
	defer rows.Close()

	var result []*models.FolderLink
	for rows.Next() {
		var l models.FolderLink
		if err := rows.Scan(&l.FolderID, &l.WorkspaceID, &l.Kind, &l.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountInTree(ctx context.Context, folderID string) (int, error) {
	query := `
		WITH RECURSIVE tree AS (
			SELECT id FROM folders WHERE id=$1
			UNION ALL
			SELECT f.id FROM folders f JOIN tree t ON f.parent_id = t.id
		)
		SELECT COUNT(*) FROM folder_links WHERE folder_id IN (SELECT id FROM tree)
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, folderID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count folder links: %w", err)
	}
	return n, nil
}
