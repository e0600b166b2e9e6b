// Package otps declares the storage contract for one-time verification codes.
// There is at most one live code per email.
package otps

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	// Upsert stores code as the only live code for email, replacing any
	// previous code and clearing its verified mark.
	Upsert(ctx context.Context, email string, code string) error

	// Get returns the live code for email or common.ErrorNotFound.
	Get(ctx context.Context, email string) (*models.OTP, error)

	// MarkVerified records that the code for email passed a check.
	MarkVerified(ctx context.Context, email string) error

	// Delete removes the code for email. Deleting a missing code is not an error.
	Delete(ctx context.Context, email string) error
}
