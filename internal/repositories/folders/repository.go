package folders

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/models"
)

type Repository interface {
	Create(ctx context.Context, folder *models.Folder) error
	Get(ctx context.Context, id string) (*models.Folder, error)
	List(ctx context.Context, ownerID string, parentID *string) ([]*models.Folder, error)
	// NameTaken reports whether a sibling other than excludeID already uses
	// name (case-insensitively) under parentID.
	NameTaken(ctx context.Context, ownerID string, parentID *string, name, excludeID string) (bool, error)
	NextDisplayOrder(ctx context.Context, ownerID string, parentID *string) (int, error)
	Rename(ctx context.Context, id, name string) error
	SetParent(ctx context.Context, id string, parentID *string) error
	SetDisplayOrder(ctx context.Context, id string, order int) error
	// IsInSubtree reports whether candidateID is rootID or one of its descendants.
	IsInSubtree(ctx context.Context, rootID, candidateID string) (bool, error)
	Delete(ctx context.Context, id string) error
}
