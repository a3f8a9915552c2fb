package secrets

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/models"
)

type Repository interface {
	Create(ctx context.Context, secret *models.Secret) error
	Get(ctx context.Context, id string) (*models.Secret, error)
	List(ctx context.Context, ownerID string, folderID *string) ([]*models.Secret, error)
	UpdateFolder(ctx context.Context, id string, folderID *string) error
	Delete(ctx context.Context, id string) error
}
