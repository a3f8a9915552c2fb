// Package files stores file metadata rows in PostgreSQL.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, owner_id, name, size, mime_type, storage_path, folder_id, created_at`

// Create inserts a new file row. A folder that does not exist yields
// ErrorNotFound, a duplicate id or storage path ErrConstraintViolation.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (id, owner_id, name, size, mime_type, storage_path, folder_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		file.ID, file.OwnerID, file.Name, file.Size, file.MimeType, file.StoragePath, file.FolderID, file.CreatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Get returns the file row by id or ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id=$1`

	var item models.File
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.Name, &item.Size, &item.MimeType, &item.StoragePath, &item.FolderID, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return &item, nil
}

// List returns the owner's files directly inside folderID (nil is the root).
func (r *PostgresRepository) List(ctx context.Context, ownerID string, folderID *string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE owner_id=$1 AND folder_id IS NOT DISTINCT FROM $2
		ORDER BY created_at, name`

	rows, err := r.db.QueryContext(ctx, query, ownerID, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Size, &item.MimeType,
			&item.StoragePath, &item.FolderID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateFolder changes folder_id only. Exactly one row must be affected.
func (r *PostgresRepository) UpdateFolder(ctx context.Context, id string, folderID *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE files SET folder_id=$2 WHERE id=$1`, id, folderID)
	if err != nil {
		return mapWriteError(err)
	}
	return dbx.ExpectOneRow(result)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return dbx.ExpectOneRow(result)
}

func (r *PostgresRepository) StoragePathsInTree(ctx context.Context, folderID string) ([]string, error) {
	query := `
		WITH RECURSIVE tree AS (
			SELECT id FROM folders WHERE id=$1
			UNION ALL
			SELECT f.id FROM folders f JOIN tree t ON f.parent_id = t.id
		)
		SELECT storage_path FROM files WHERE folder_id IN (SELECT id FROM tree)
	`
	rows, err := r.db.QueryContext(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to select storage paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

func mapWriteError(err error) error {
	switch {
	case dbx.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: folder: %v", common.ErrorNotFound, err)
	case dbx.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", common.ErrConstraintViolation, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
