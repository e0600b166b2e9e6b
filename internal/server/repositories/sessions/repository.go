// Package sessions declares and implements storage for login sessions.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// Repository defines operations on the sessions owned by a user.
type Repository interface {
	// Create appends a session and fills in its id and creation time.
	Create(ctx context.Context, session *models.Session) error

	// ListByUser returns the user's sessions, oldest first.
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)

	// Prune drops sessions created before olderThan and all but the newest keep
	// sessions. It returns the number of removed rows.
	Prune(ctx context.Context, userID string, olderThan time.Time, keep int) (int64, error)
}
