// Package folders stores the folder hierarchy. Deleting a folder cascades to
// its descendants, their files, secrets and access grants through foreign keys.
package folders

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

const folderColumns = `id, owner_id, name, parent_id, display_order, created_at, updated_at`

// Create inserts a folder. The sibling-name unique index maps to
// ErrConstraintViolation, an unknown parent to ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, f *models.Folder) error {
	query := `
		INSERT INTO folders (id, owner_id, name, parent_id, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.OwnerID, f.Name, f.ParentID, f.DisplayOrder, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id=$1`

	var f models.Folder
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&f.ID, &f.OwnerID, &f.Name, &f.ParentID, &f.DisplayOrder, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select folder: %w", err)
	}
	return &f, nil
}

// List returns the children of parentID (nil lists the owner's top level)
// in display order.
func (r *PostgresRepository) List(ctx context.Context, ownerID string, parentID *string) ([]*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders
		WHERE owner_id=$1 AND parent_id IS NOT DISTINCT FROM $2
		ORDER BY display_order, lower(name)`

	rows, err := r.db.QueryContext(ctx, query, ownerID, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	var result []*models.Folder
	for rows.Next() {
		var f models.Folder
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Name, &f.ParentID, &f.DisplayOrder, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) NameTaken(ctx context.Context, ownerID string, parentID *string, name, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM folders
			WHERE owner_id=$1 AND parent_id IS NOT DISTINCT FROM $2 AND lower(name)=lower($3) AND id<>$4
		)
	`
	var taken bool
	if err := r.db.QueryRowContext(ctx, query, ownerID, parentID, name, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check sibling names: %w", err)
	}
	return taken, nil
}

func (r *PostgresRepository) NextDisplayOrder(ctx context.Context, ownerID string, parentID *string) (int, error) {
	query := `
		SELECT COALESCE(MAX(display_order), 0) + 1 FROM folders
		WHERE owner_id=$1 AND parent_id IS NOT DISTINCT FROM $2
	`
	var next int
	if err := r.db.QueryRowContext(ctx, query, ownerID, parentID).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to select display order: %w", err)
	}
	return next, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, id, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE folders SET name=$2, updated_at=now() WHERE id=$1`, id, name)
	if err != nil {
		return mapWriteError(err)
	}
	return dbx.ExpectOneRow(result)
}

func (r *PostgresRepository) SetParent(ctx context.Context, id string, parentID *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE folders SET parent_id=$2, updated_at=now() WHERE id=$1`, id, parentID)
	if err != nil {
		return mapWriteError(err)
	}
	return dbx.ExpectOneRow(result)
}

func (r *PostgresRepository) SetDisplayOrder(ctx context.Context, id string, order int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE folders SET display_order=$2, updated_at=now() WHERE id=$1`, id, order)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(result)
}

func (r *PostgresRepository) IsInSubtree(ctx context.Context, rootID, candidateID string) (bool, error) {
	query := `
		WITH RECURSIVE tree AS (
			SELECT id FROM folders WHERE id=$1
			UNION ALL
			SELECT f.id FROM folders f JOIN tree t ON f.parent_id = t.id
		)
		SELECT EXISTS (SELECT 1 FROM tree WHERE id=$2)
	`
	var found bool
	if err := r.db.QueryRowContext(ctx, query, rootID, candidateID).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to walk folder tree: %w", err)
	}
	return found, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE id=$1`, id)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			// a folder_links row still points into the subtree
			return fmt.Errorf("%w: folder is referenced: %v", common.ErrConstraintViolation, err)
		}
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return dbx.ExpectOneRow(result)
}

func mapWriteError(err error) error {
	switch {
	case dbx.IsUniqueViolation(err):
		return fmt.Errorf("%w: duplicate sibling folder name", common.ErrConstraintViolation)
	case dbx.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: parent folder: %v", common.ErrorNotFound, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
