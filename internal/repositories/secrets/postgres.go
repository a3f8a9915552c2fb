// Package secrets stores password and API key rows. The value column holds
// base64 ciphertext, never plaintext.
package secrets

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

const secretColumns = `id, owner_id, kind, name, ciphertext, folder_id, created_at`

func (r *PostgresRepository) Create(ctx context.Context, s *models.Secret) error {
	query := `
		INSERT INTO secrets (id, owner_id, kind, name, ciphertext, folder_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.OwnerID, string(s.Kind), s.Name, s.Ciphertext, s.FolderID, s.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: folder: %v", common.ErrorNotFound, err)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Secret, error) {
	query := `SELECT ` + secretColumns + ` FROM secrets WHERE id=$1`

	var item models.Secret
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.Kind, &item.Name, &item.Ciphertext, &item.FolderID, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select secret: %w", err)
	}
	return &item, nil
}

// List returns the owner's secrets directly inside folderID (nil is the root).
func (r *PostgresRepository) List(ctx context.Context, ownerID string, folderID *string) ([]*models.Secret, error) {
	query := `SELECT ` + secretColumns + ` FROM secrets
		WHERE owner_id=$1 AND folder_id IS NOT DISTINCT FROM $2
		ORDER BY kind, name`

	rows, err := r.db.QueryContext(ctx, query, ownerID, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to select secrets: %w", err)
	}
	defer rows.Close()

	var result []*models.Secret
	for rows.Next() {
		var item models.Secret
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Kind, &item.Name,
			&item.Ciphertext, &item.FolderID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpdateFolder(ctx context.Context, id string, folderID *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE secrets SET folder_id=$2 WHERE id=$1`, id, folderID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: folder: %v", common.ErrorNotFound, err)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(result)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM secrets WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return dbx.ExpectOneRow(result)
}
