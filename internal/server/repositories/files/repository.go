// Package files declares and implements storage of file metadata records.
// File content itself lives in the blob store.
package files

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	// Create inserts the record and fills ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id string) (*models.File, error)
	ListByFolder(ctx context.Context, folderID string) ([]*models.File, error)
	// Delete removes the record; a missing record yields common.ErrorNotFound.
	Delete(ctx context.Context, id string) error
}
