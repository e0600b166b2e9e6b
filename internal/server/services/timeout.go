// Package services contains server-side business logic: the auth engine
// (UserService) and the folder/file manager (FolderService, FileService).
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
)

// bounded runs fn under a deadline of d. A deadline hit is reported as
// common.ErrTimeout so callers can retry.
func bounded(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := fn(ctx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %w", common.ErrTimeout, err)
	}
	return err
}

// boundedValue is bounded for calls that also return a value.
func boundedValue[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := bounded(ctx, d, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
