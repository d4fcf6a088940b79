package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/pin-admin/internal/apperror"
	"github.com/sakif/pin-admin/internal/model"
	"github.com/sakif/pin-admin/internal/repository"
)

var _ repository.ActivityRepository = (*DB)(nil)

// maxList caps a single List call.
const maxList = 5000

// Record appends an entry. ID and CreatedAt are filled in when empty.
// created_at is stored as Unix milliseconds so ordering is numeric.
func (db *DB) Record(ctx context.Context, a *model.Activity) error {
	if a.Action == "" || a.Entity == "" {
		return apperror.ValidationFailed("action", "activity needs an action and an entity")
	}
	if a.ID == "" {
		a.ID = xid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.Outcome == "" {
		a.Outcome = model.OutcomeSuccess
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO activity (id, admin, action, entity, entity_id, outcome, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Admin, a.Action, a.Entity, a.EntityID, a.Outcome, a.Detail, a.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: recording activity: %w", err)
	}
	return nil
}

// List returns entries newest first.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Activity, error) {
	if opts.Limit <= 0 || opts.Limit > maxList {
		opts.Limit = maxList
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, admin, action, entity, entity_id, outcome, detail, created_at
		 FROM activity
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing activity: %w", err)
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		var a model.Activity
		var created int64
		if err := rows.Scan(&a.ID, &a.Admin, &a.Action, &a.Entity, &a.EntityID, &a.Outcome, &a.Detail, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scanning activity: %w", err)
		}
		a.CreatedAt = time.UnixMilli(created)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating activity: %w", err)
	}
	return out, nil
}

// Prune deletes entries older than before and reports how many went.
func (db *DB) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM activity WHERE created_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sqlite: pruning activity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: pruning activity: %w", err)
	}
	return n, nil
}
