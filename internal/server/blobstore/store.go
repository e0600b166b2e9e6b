// Package blobstore keeps file contents under opaque keys. File records
// reference blobs by key only, never by filesystem path.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Store is a keyed blob container. Open on a missing key returns
// common.ErrBlobMissing; Delete on a missing key is not an error.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// NewKey returns a fresh blob key "<unix-millis>-<uuid>" together with its
// timestamp token.
func NewKey(now time.Time) (key string, token string) {
	token = fmt.Sprintf("%d", now.UnixMilli())
	return token + "-" + uuid.NewString(), token
}
