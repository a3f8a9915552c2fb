// Package access stores folder access grants, one row per (folder, user).
package access

import (
	"context"
	"database/sql"
	"errors"
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

func (r *PostgresRepository) Upsert(ctx context.Context, g *models.FolderAccess) error {
	query := `
		INSERT INTO folder_access (folder_id, user_id, access_level, granted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (folder_id, user_id)
		DO UPDATE SET
			access_level = EXCLUDED.access_level,
			granted_by = EXCLUDED.granted_by,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, g.FolderID, g.UserID, string(g.AccessLevel), g.GrantedBy, g.UpdatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: folder: %v", common.ErrorNotFound, err)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, folderID, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM folder_access WHERE folder_id=$1 AND user_id=$2`, folderID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete grant: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, folderID string) ([]*models.FolderAccess, error) {
	query := `
		SELECT folder_id, user_id, access_level, granted_by, created_at, updated_at
		FROM folder_access WHERE folder_id=$1 ORDER BY user_id
	`
	rows, err := r.db.QueryContext(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to select grants: %w", err)
	}
	defer rows.Close()

	var result []*models.FolderAccess
	for rows.Next() {
		var g models.FolderAccess
		if err := rows.Scan(&g.FolderID, &g.UserID, &g.AccessLevel, &g.GrantedBy, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, folderID, userID string) (*models.FolderAccess, error) {
	query := `
		SELECT folder_id, user_id, access_level, granted_by, created_at, updated_at
		FROM folder_access WHERE folder_id=$1 AND user_id=$2
	`
	var g models.FolderAccess
	err := r.db.QueryRowContext(ctx, query, folderID, userID).Scan(
		&g.FolderID, &g.UserID, &g.AccessLevel, &g.GrantedBy, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select grant: %w", err)
	}
	return &g, nil
}
