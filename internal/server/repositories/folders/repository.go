// Package folders declares and implements folder storage. Folder names are
// unique case-insensitively; the database enforces it.
package folders

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, name string) (*models.Folder, error)
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	// GetByName matches names case-insensitively.
	GetByName(ctx context.Context, name string) (*models.Folder, error)
	List(ctx context.Context) ([]*models.Folder, error)
	Rename(ctx context.Context, id string, name string) (*models.Folder, error)
	// DeleteIfEmpty removes the folder only when no file references it.
	// It reports whether a row was deleted.
	DeleteIfEmpty(ctx context.Context, id string) (bool, error)
}
