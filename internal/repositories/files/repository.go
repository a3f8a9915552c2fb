package files

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) error
	Get(ctx context.Context, id string) (*models.File, error)
	List(ctx context.Context, ownerID string, folderID *string) ([]*models.File, error)
	UpdateFolder(ctx context.Context, id string, folderID *string) error
	Delete(ctx context.Context, id string) error
	// StoragePathsInTree returns the blob paths of every file in folderID and
	// its descendants, i.e. everything a cascading folder delete removes.
	StoragePathsInTree(ctx context.Context, folderID string) ([]string, error)
}
