package access

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/models"
)

type Repository interface {
	// Upsert creates the grant or updates the level of the existing one.
	Upsert(ctx context.Context, grant *models.FolderAccess) error
	// Delete removes the grant; a missing grant is not an error.
	Delete(ctx context.Context, folderID, userID string) error
	List(ctx context.Context, folderID string) ([]*models.FolderAccess, error)
	Get(ctx context.Context, folderID, userID string) (*models.FolderAccess, error)
}
