// Package repository declares the local persistence the console owns. The
// platform records themselves live behind the remote API; the only thing
// stored locally is the audit trail of what administrators changed.
package repository

import (
	"context"
	"time"

	"github.com/sakif/pin-admin/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// ActivityRepository stores one entry per admin mutation.
type ActivityRepository interface {
	Record(ctx context.Context, a *model.Activity) error
	List(ctx context.Context, opts ListOptions) ([]model.Activity, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}
