package links

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/models"
)

type Repository interface {
	// Create links a folder to a workspace; linking again updates the kind.
	Create(ctx context.Context, link *models.FolderLink) error
	Delete(ctx context.Context, folderID, workspaceID string) error
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.FolderLink, error)
	// CountInTree counts links that reference folderID or any descendant.
	CountInTree(ctx context.Context, folderID string) (int, error)
}
